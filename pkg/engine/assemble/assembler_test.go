package assemble

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DrSkyle/stackmint/pkg/engine/resolver"
)

func exact(value, namespace string) resolver.Pattern {
	return resolver.Pattern{Value: value, Namespace: namespace, Confidence: resolver.Exact}
}

func derived(value, namespace string) resolver.Pattern {
	return resolver.Pattern{Value: value, Namespace: namespace, Confidence: resolver.Derived}
}

func unresolved(namespace string) resolver.Pattern {
	return resolver.Pattern{Value: namespace, Namespace: namespace, Confidence: resolver.Unresolved}
}

var bucketActions = []string{"s3:CreateBucket", "s3:DeleteBucket"}

func TestMergeIdenticalGrants(t *testing.T) {
	// Two resources of the same type with identical literal names must
	// produce one statement with one resource pattern.
	grants := []Grant{
		{Actions: bucketActions, Pattern: exact("arn:aws:s3:::reports-bucket", "arn:aws:s3:::*")},
		{Actions: bucketActions, Pattern: exact("arn:aws:s3:::reports-bucket", "arn:aws:s3:::*")},
	}
	out, err := Assemble(grants, 0)
	require.NoError(t, err)
	require.Len(t, out.Document.Statement, 1)
	assert.Equal(t, []string{"arn:aws:s3:::reports-bucket"}, out.Document.Statement[0].Resource)
}

func TestDistinctExactNamesStaySideBySide(t *testing.T) {
	// Merging distinct exact names into a shared prefix would widen the
	// grant; they must stay listed individually instead.
	grants := []Grant{
		{Actions: bucketActions, Pattern: exact("arn:aws:s3:::reports-a", "arn:aws:s3:::*")},
		{Actions: bucketActions, Pattern: exact("arn:aws:s3:::reports-b", "arn:aws:s3:::*")},
	}
	out, err := Assemble(grants, 0)
	require.NoError(t, err)
	require.Len(t, out.Document.Statement, 1)
	assert.Equal(t, []string{"arn:aws:s3:::reports-a", "arn:aws:s3:::reports-b"}, out.Document.Statement[0].Resource)
}

func TestNeverMergeAcrossActionSets(t *testing.T) {
	grants := []Grant{
		{Actions: []string{"s3:CreateBucket"}, Pattern: exact("arn:aws:s3:::a", "arn:aws:s3:::*")},
		{Actions: []string{"s3:DeleteBucket"}, Pattern: exact("arn:aws:s3:::a", "arn:aws:s3:::*")},
	}
	out, err := Assemble(grants, 0)
	require.NoError(t, err)
	assert.Len(t, out.Document.Statement, 2)
}

func TestDerivedPrefixSubsumesExact(t *testing.T) {
	grants := []Grant{
		{Actions: bucketActions, Pattern: derived("arn:aws:s3:::reports-*", "arn:aws:s3:::*")},
		{Actions: bucketActions, Pattern: exact("arn:aws:s3:::reports-2024", "arn:aws:s3:::*")},
	}
	out, err := Assemble(grants, 0)
	require.NoError(t, err)
	require.Len(t, out.Document.Statement, 1)
	assert.Equal(t, []string{"arn:aws:s3:::reports-*"}, out.Document.Statement[0].Resource)
}

func TestUnresolvedCollapse(t *testing.T) {
	// Distinct unresolved namespaces under one action set collapse to a
	// single full-wildcard statement.
	actions := []string{"tag:TagResources"}
	grants := []Grant{
		{Actions: actions, Pattern: unresolved("arn:aws:sqs:*:*:*")},
		{Actions: actions, Pattern: unresolved("arn:aws:sns:*:*:*")},
	}
	out, err := Assemble(grants, 0)
	require.NoError(t, err)
	require.Len(t, out.Document.Statement, 1)
	assert.Equal(t, []string{"*"}, out.Document.Statement[0].Resource)
}

func TestDeterministicOrderingAndSids(t *testing.T) {
	grants := []Grant{
		{Actions: []string{"sqs:CreateQueue"}, Pattern: exact("arn:aws:sqs:*:*:q", "arn:aws:sqs:*:*:*")},
		{Actions: bucketActions, Pattern: exact("arn:aws:s3:::b", "arn:aws:s3:::*")},
	}
	first, err := Assemble(grants, 0)
	require.NoError(t, err)

	// Same grants, submission order reversed.
	second, err := Assemble([]Grant{grants[1], grants[0]}, 0)
	require.NoError(t, err)

	a, err := first.Document.MarshalIndent()
	require.NoError(t, err)
	b, err := second.Document.MarshalIndent()
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))

	assert.Equal(t, "Stmt0", first.Document.Statement[0].Sid)
	assert.Equal(t, "Stmt1", first.Document.Statement[1].Sid)
}

func TestBudgetWidening(t *testing.T) {
	var grants []Grant
	for i := 0; i < 200; i++ {
		name := fmt.Sprintf("arn:aws:s3:::bucket-%04d", i)
		grants = append(grants, Grant{Actions: bucketActions, Pattern: exact(name, "arn:aws:s3:::*")})
	}

	unbounded, err := Assemble(grants, 0)
	require.NoError(t, err)
	unboundedSize, err := unbounded.Document.CompactSize()
	require.NoError(t, err)
	require.Greater(t, unboundedSize, 1024)

	out, err := Assemble(grants, 1024)
	require.NoError(t, err)
	assert.False(t, out.OverBudget)
	require.NotEmpty(t, out.Widenings, "widening must be recorded as a warning")

	size, err := out.Document.CompactSize()
	require.NoError(t, err)
	assert.LessOrEqual(t, size, 1024)

	// The widened document is a scope superset of the unbounded one:
	// every statement now matches at least the namespace wildcard.
	require.Len(t, out.Document.Statement, 1)
	assert.Equal(t, []string{"arn:aws:s3:::*"}, out.Document.Statement[0].Resource)
	assert.Equal(t, unbounded.Document.Statement[0].Action, out.Document.Statement[0].Action)
}

func TestBudgetUnsatisfiable(t *testing.T) {
	grants := []Grant{
		{Actions: bucketActions, Pattern: unresolved("arn:aws:s3:::*")},
	}
	out, err := Assemble(grants, 16)
	require.NoError(t, err)
	assert.True(t, out.OverBudget, "nothing left to widen; must flag instead of dropping actions")
	assert.Len(t, out.Document.Statement, 1)
}
