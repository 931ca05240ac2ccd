package vectorstore

import (
	"testing"

	"github.com/inletai/inlet/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestGlobToLike(t *testing.T) {
	assert.Equal(t, "prompt:%", globToLike("prompt:*"))
	assert.Equal(t, "doc:report.pdf.txt:_", globToLike("doc:report.pdf.txt:?"))
	assert.Equal(t, "a\\%b", globToLike("a%b"))
	assert.Equal(t, "a\\_b", globToLike("a_b"))
	assert.Equal(t, "a\\\\b%", globToLike("a\\b*"))
	assert.Equal(t, "plain", globToLike("plain"))
}

func TestOperatorPerMetric(t *testing.T) {
	assert.Equal(t, "<=>", operator(domain.DistanceCosine))
	assert.Equal(t, "<->", operator(domain.DistanceL2))
	assert.Equal(t, "<#>", operator(domain.DistanceInnerProduct))
	assert.Equal(t, "<=>", operator(domain.DistanceMetric("unknown")))
}

func TestOpClassPerMetric(t *testing.T) {
	assert.Equal(t, "vector_cosine_ops", opClass(domain.DistanceCosine))
	assert.Equal(t, "vector_l2_ops", opClass(domain.DistanceL2))
	assert.Equal(t, "vector_ip_ops", opClass(domain.DistanceInnerProduct))
}

func TestIdentifier(t *testing.T) {
	assert.Equal(t, "idx_doc_index_embedding", identifier("idx_doc-index_embedding"))
	assert.Equal(t, "abc_123", identifier("Abc 123"))
}
