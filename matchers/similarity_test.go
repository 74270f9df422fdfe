package matchers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTitle(t *testing.T) {
	assert.Equal(t, "맥북 에어 m2", NormalizeTitle("  맥북 에어 M2!! "))
	assert.Equal(t, "아이폰 15 프로", NormalizeTitle("아이폰-15 (프로)"))
	assert.Equal(t, "", NormalizeTitle("★☆★"))
}

func TestSimilarity_Identical(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("맥북 에어 M2", "맥북 에어 M2"))
	assert.Equal(t, 1.0, Similarity("맥북 에어 M2!!", "맥북-에어 M2"))
}

func TestSimilarity_Repost(t *testing.T) {
	// New article id, near-identical title: should score above any sane threshold.
	s := Similarity("맥북 에어 M2 13인치 미드나이트 팝니다", "맥북 에어 M2 13인치 미드나이트 판매")
	assert.Greater(t, s, 0.85)
}

func TestSimilarity_Different(t *testing.T) {
	s := Similarity("맥북 에어 M2", "아이패드 프로 11인치")
	assert.Less(t, s, 0.3)
}

func TestSimilarity_UnspacedKorean(t *testing.T) {
	// Single-token titles fall back to bigrams.
	s := Similarity("맥북에어M2팝니다", "맥북에어M2판매")
	assert.Greater(t, s, 0.5)
}

func TestSimilarity_Empty(t *testing.T) {
	assert.Equal(t, 0.0, Similarity("", "맥북"))
	assert.Equal(t, 0.0, Similarity("맥북", ""))
}

func TestContainsAny(t *testing.T) {
	assert.True(t, ContainsAny("맥북 에어 M2 케이스 포함", []string{"케이스"}))
	assert.True(t, ContainsAny("MacBook Air", []string{"macbook"}))
	assert.False(t, ContainsAny("맥북 에어 M2", []string{"케이스", "파우치"}))
	assert.False(t, ContainsAny("맥북", nil))
}
