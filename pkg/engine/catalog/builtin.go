package catalog

// builtinVersion tracks the data revision, not the binary version.
const builtinVersion = "2025-08"

// CapabilityIAM et al. are the provider-native capability names; the set
// is handed verbatim to the deploy call.
const (
	CapabilityIAM        = "CAPABILITY_IAM"
	CapabilityNamedIAM   = "CAPABILITY_NAMED_IAM"
	CapabilityAutoExpand = "CAPABILITY_AUTO_EXPAND"
)

// BaselineActions are the CloudFormation control actions every deployment
// role needs regardless of template contents.
func BaselineActions() []string {
	return []string{
		"cloudformation:CreateChangeSet",
		"cloudformation:CreateStack",
		"cloudformation:DeleteChangeSet",
		"cloudformation:DeleteStack",
		"cloudformation:DescribeChangeSet",
		"cloudformation:DescribeStackEvents",
		"cloudformation:DescribeStacks",
		"cloudformation:ExecuteChangeSet",
		"cloudformation:GetTemplate",
		"cloudformation:GetTemplateSummary",
		"cloudformation:UpdateStack",
		"cloudformation:ValidateTemplate",
	}
}

// BaselineResource scopes the baseline actions to the stack namespace.
func BaselineResource() string {
	return "arn:*:cloudformation:*:*:stack/*"
}

// TransformScope returns the service namespaces a template transform may
// expand resources into. Statically unenumerable, so the emitted policy is
// conservative for this sub-graph.
func TransformScope(transform string) []string {
	if scope, ok := transformScopes[transform]; ok {
		return scope
	}
	return []string{"*"}
}

var transformScopes = map[string][]string{
	"AWS::Serverless-2016-10-31": {"apigateway", "cloudformation", "iam", "lambda", "s3"},
	"AWS::LanguageExtensions":    {"cloudformation"},
	"AWS::Include":               {"cloudformation", "s3"},
}

var builtinEntries = map[string]Entry{
	"AWS::S3::Bucket": {
		NameProperty: "BucketName",
		ARN:          ARNShape{Service: "s3", Format: "%s", NoRegion: true, NoAccount: true},
		Actions: map[Phase][]string{
			PhaseCreate: {"s3:CreateBucket", "s3:PutBucketPolicy", "s3:PutBucketTagging", "s3:PutEncryptionConfiguration"},
			PhaseUpdate: {"s3:PutBucketPolicy", "s3:PutBucketTagging", "s3:PutEncryptionConfiguration", "s3:PutLifecycleConfiguration"},
			PhaseDelete: {"s3:DeleteBucket", "s3:DeleteBucketPolicy"},
			PhaseRead:   {"s3:GetBucketPolicy", "s3:GetEncryptionConfiguration", "s3:ListBucket"},
		},
	},
	"AWS::SQS::Queue": {
		NameProperty: "QueueName",
		ARN:          ARNShape{Service: "sqs", Format: "%s"},
		Actions: map[Phase][]string{
			PhaseCreate: {"sqs:CreateQueue", "sqs:TagQueue"},
			PhaseUpdate: {"sqs:SetQueueAttributes", "sqs:TagQueue", "sqs:UntagQueue"},
			PhaseDelete: {"sqs:DeleteQueue"},
			PhaseRead:   {"sqs:GetQueueAttributes"},
		},
	},
	"AWS::SNS::Topic": {
		NameProperty: "TopicName",
		ARN:          ARNShape{Service: "sns", Format: "%s"},
		Actions: map[Phase][]string{
			PhaseCreate: {"sns:CreateTopic", "sns:TagResource"},
			PhaseUpdate: {"sns:SetTopicAttributes", "sns:TagResource", "sns:UntagResource"},
			PhaseDelete: {"sns:DeleteTopic"},
			PhaseRead:   {"sns:GetTopicAttributes"},
		},
	},
	"AWS::Lambda::Function": {
		NameProperty: "FunctionName",
		ARN:          ARNShape{Service: "lambda", Format: "function:%s"},
		Actions: map[Phase][]string{
			PhaseCreate: {"lambda:AddPermission", "lambda:CreateFunction", "lambda:TagResource"},
			PhaseUpdate: {"lambda:AddPermission", "lambda:RemovePermission", "lambda:UpdateFunctionCode", "lambda:UpdateFunctionConfiguration"},
			PhaseDelete: {"lambda:DeleteFunction", "lambda:RemovePermission"},
			PhaseRead:   {"lambda:GetFunction", "lambda:GetFunctionConfiguration"},
		},
	},
	"AWS::DynamoDB::Table": {
		NameProperty: "TableName",
		ARN:          ARNShape{Service: "dynamodb", Format: "table/%s"},
		Actions: map[Phase][]string{
			PhaseCreate: {"dynamodb:CreateTable", "dynamodb:TagResource"},
			PhaseUpdate: {"dynamodb:UpdateTable", "dynamodb:UpdateTimeToLive"},
			PhaseDelete: {"dynamodb:DeleteTable"},
			PhaseRead:   {"dynamodb:DescribeTable", "dynamodb:DescribeTimeToLive"},
		},
	},
	"AWS::EC2::Instance": {
		// Instance ids are generated; patterns stay at the namespace.
		ARN: ARNShape{Service: "ec2", Format: "instance/%s"},
		Actions: map[Phase][]string{
			PhaseCreate: {"ec2:CreateTags", "ec2:RunInstances"},
			PhaseUpdate: {"ec2:CreateTags", "ec2:ModifyInstanceAttribute"},
			PhaseDelete: {"ec2:TerminateInstances"},
			PhaseRead:   {"ec2:DescribeInstances"},
		},
	},
	"AWS::IAM::Role": {
		NameProperty: "RoleName",
		ARN:          ARNShape{Service: "iam", Format: "role/%s", NoRegion: true},
		Capabilities: []string{CapabilityIAM},
		Actions: map[Phase][]string{
			PhaseCreate: {"iam:AttachRolePolicy", "iam:CreateRole", "iam:PassRole", "iam:PutRolePolicy", "iam:TagRole"},
			PhaseUpdate: {"iam:AttachRolePolicy", "iam:DeleteRolePolicy", "iam:DetachRolePolicy", "iam:PassRole", "iam:PutRolePolicy", "iam:UpdateAssumeRolePolicy", "iam:UpdateRole"},
			PhaseDelete: {"iam:DeleteRole", "iam:DeleteRolePolicy", "iam:DetachRolePolicy"},
			PhaseRead:   {"iam:GetRole", "iam:GetRolePolicy", "iam:ListAttachedRolePolicies", "iam:ListRolePolicies"},
		},
	},
	"AWS::IAM::ManagedPolicy": {
		NameProperty: "ManagedPolicyName",
		ARN:          ARNShape{Service: "iam", Format: "policy/%s", NoRegion: true},
		Capabilities: []string{CapabilityIAM},
		Actions: map[Phase][]string{
			PhaseCreate: {"iam:CreatePolicy", "iam:TagPolicy"},
			PhaseUpdate: {"iam:CreatePolicyVersion", "iam:DeletePolicyVersion", "iam:SetDefaultPolicyVersion"},
			PhaseDelete: {"iam:DeletePolicy", "iam:DeletePolicyVersion"},
			PhaseRead:   {"iam:GetPolicy", "iam:GetPolicyVersion"},
		},
	},
	"AWS::IAM::Policy": {
		// Inline policy: no ARN of its own, attaches to roles/users/groups.
		ARN:          ARNShape{Service: "iam", Format: "%s", NoRegion: true},
		Capabilities: []string{CapabilityIAM},
		Actions: map[Phase][]string{
			PhaseCreate: {"iam:PutGroupPolicy", "iam:PutRolePolicy", "iam:PutUserPolicy"},
			PhaseUpdate: {"iam:PutGroupPolicy", "iam:PutRolePolicy", "iam:PutUserPolicy"},
			PhaseDelete: {"iam:DeleteGroupPolicy", "iam:DeleteRolePolicy", "iam:DeleteUserPolicy"},
			PhaseRead:   {"iam:GetGroupPolicy", "iam:GetRolePolicy", "iam:GetUserPolicy"},
		},
	},
	"AWS::IAM::User": {
		NameProperty: "UserName",
		ARN:          ARNShape{Service: "iam", Format: "user/%s", NoRegion: true},
		Capabilities: []string{CapabilityIAM},
		Actions: map[Phase][]string{
			PhaseCreate: {"iam:CreateUser", "iam:TagUser"},
			PhaseUpdate: {"iam:TagUser", "iam:UntagUser", "iam:UpdateUser"},
			PhaseDelete: {"iam:DeleteUser"},
			PhaseRead:   {"iam:GetUser"},
		},
	},
	"AWS::IAM::Group": {
		NameProperty: "GroupName",
		ARN:          ARNShape{Service: "iam", Format: "group/%s", NoRegion: true},
		Capabilities: []string{CapabilityIAM},
		Actions: map[Phase][]string{
			PhaseCreate: {"iam:CreateGroup"},
			PhaseUpdate: {"iam:UpdateGroup"},
			PhaseDelete: {"iam:DeleteGroup"},
			PhaseRead:   {"iam:GetGroup"},
		},
	},
	"AWS::IAM::InstanceProfile": {
		NameProperty: "InstanceProfileName",
		ARN:          ARNShape{Service: "iam", Format: "instance-profile/%s", NoRegion: true},
		Capabilities: []string{CapabilityIAM},
		Actions: map[Phase][]string{
			PhaseCreate: {"iam:AddRoleToInstanceProfile", "iam:CreateInstanceProfile"},
			PhaseUpdate: {"iam:AddRoleToInstanceProfile", "iam:RemoveRoleFromInstanceProfile"},
			PhaseDelete: {"iam:DeleteInstanceProfile", "iam:RemoveRoleFromInstanceProfile"},
			PhaseRead:   {"iam:GetInstanceProfile"},
		},
	},
	"AWS::ACMPCA::CertificateAuthority": {
		// CA ids are generated UUIDs.
		ARN: ARNShape{Service: "acm-pca", Format: "certificate-authority/%s"},
		Actions: map[Phase][]string{
			PhaseCreate: {"acm-pca:CreateCertificateAuthority", "acm-pca:TagResource"},
			PhaseUpdate: {"acm-pca:UpdateCertificateAuthority"},
			PhaseDelete: {"acm-pca:DeleteCertificateAuthority"},
			PhaseRead:   {"acm-pca:DescribeCertificateAuthority", "acm-pca:GetCertificateAuthorityCertificate", "acm-pca:GetCertificateAuthorityCsr"},
		},
	},
	"AWS::ACMPCA::Certificate": {
		ARN: ARNShape{Service: "acm-pca", Format: "certificate-authority/*/certificate/%s"},
		Actions: map[Phase][]string{
			PhaseCreate: {"acm-pca:IssueCertificate"},
			PhaseDelete: {"acm-pca:RevokeCertificate"},
			PhaseRead:   {"acm-pca:GetCertificate"},
		},
	},
	"AWS::ACMPCA::CertificateAuthorityActivation": {
		ARN: ARNShape{Service: "acm-pca", Format: "certificate-authority/%s"},
		Actions: map[Phase][]string{
			PhaseCreate: {"acm-pca:ImportCertificateAuthorityCertificate", "acm-pca:UpdateCertificateAuthority"},
			PhaseUpdate: {"acm-pca:ImportCertificateAuthorityCertificate", "acm-pca:UpdateCertificateAuthority"},
		},
	},
	"AWS::RolesAnywhere::TrustAnchor": {
		ARN: ARNShape{Service: "rolesanywhere", Format: "trust-anchor/%s"},
		Actions: map[Phase][]string{
			PhaseCreate: {"rolesanywhere:CreateTrustAnchor", "rolesanywhere:TagResource"},
			PhaseUpdate: {"rolesanywhere:DisableTrustAnchor", "rolesanywhere:EnableTrustAnchor", "rolesanywhere:UpdateTrustAnchor"},
			PhaseDelete: {"rolesanywhere:DeleteTrustAnchor"},
			PhaseRead:   {"rolesanywhere:GetTrustAnchor"},
		},
	},
	"AWS::RolesAnywhere::Profile": {
		ARN: ARNShape{Service: "rolesanywhere", Format: "profile/%s"},
		Actions: map[Phase][]string{
			PhaseCreate: {"rolesanywhere:CreateProfile", "rolesanywhere:TagResource"},
			PhaseUpdate: {"rolesanywhere:DisableProfile", "rolesanywhere:EnableProfile", "rolesanywhere:UpdateProfile"},
			PhaseDelete: {"rolesanywhere:DeleteProfile"},
			PhaseRead:   {"rolesanywhere:GetProfile"},
		},
	},
	"AWS::CloudFormation::Stack": {
		// Nested stacks expand server-side; the detector flags them.
		ARN:          ARNShape{Service: "cloudformation", Format: "stack/%s/*"},
		Capabilities: []string{CapabilityAutoExpand},
		Actions: map[Phase][]string{
			PhaseCreate: {"cloudformation:CreateStack"},
			PhaseUpdate: {"cloudformation:UpdateStack"},
			PhaseDelete: {"cloudformation:DeleteStack"},
			PhaseRead:   {"cloudformation:DescribeStacks"},
		},
	},
}
