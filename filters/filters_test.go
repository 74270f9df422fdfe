package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sehyunk/jangter/enums"
	"github.com/sehyunk/jangter/models"
)

func item(title, priceText string) models.Item {
	return models.Item{
		Platform:  enums.PlatformDanggeun,
		ArticleID: "a1",
		Title:     title,
		Price:     priceText,
		Keyword:   "맥북",
	}
}

func TestApply_PriceBounds(t *testing.T) {
	kw := models.SearchKeyword{Keyword: "맥북", MinPrice: 500_000, MaxPrice: 1_500_000}

	out := Apply([]models.Item{
		item("맥북 에어 M2", "10만원"),    // 100,000: below min
		item("맥북 에어 M2", "120만원"),   // 1,200,000: in range
		item("맥북 프로", "200만원"),      // 2,000,000: above max
		item("맥북 에어 나눔", "무료나눔"), // zero price always passes
	}, kw, nil)

	assert.Len(t, out, 2)
	assert.Equal(t, "120만원", out[0].Price)
	assert.Equal(t, "무료나눔", out[1].Price)
}

func TestApply_ExcludedKeywords(t *testing.T) {
	kw := models.SearchKeyword{Keyword: "맥북", ExcludeKeywords: []string{"케이스", "파우치"}}

	out := Apply([]models.Item{
		item("맥북 에어 M2", "100만원"),
		item("맥북 케이스 팝니다", "1만원"),
		item("맥북 전용 파우치", "5천원"),
	}, kw, nil)

	assert.Len(t, out, 1)
	assert.Equal(t, "맥북 에어 M2", out[0].Title)
}

func TestApply_Location(t *testing.T) {
	kw := models.SearchKeyword{Keyword: "맥북", Location: "강남"}

	a := item("맥북 에어", "100만원")
	a.Location = "서울 강남구"
	b := item("맥북 에어", "100만원")
	b.Location = "부산 해운대구"
	c := item("맥북 에어", "100만원") // unknown location passes

	out := Apply([]models.Item{a, b, c}, kw, nil)
	assert.Len(t, out, 2)
}

func TestApply_BlockedSellers(t *testing.T) {
	kw := models.SearchKeyword{Keyword: "맥북"}
	blocked := BlockedSet{
		{Seller: "업자1", Platform: enums.PlatformDanggeun}: {},
	}

	a := item("맥북 에어", "100만원")
	a.Seller = "업자1"
	b := item("맥북 에어", "100만원")
	b.Seller = "일반판매자"
	c := item("맥북 에어", "100만원")
	c.Seller = "업자1"
	c.Platform = enums.PlatformBunjang // blocked only on danggeun

	out := Apply([]models.Item{a, b, c}, kw, blocked)
	assert.Len(t, out, 2)
}

func TestApply_InvalidTitles(t *testing.T) {
	kw := models.SearchKeyword{Keyword: "맥북"}

	out := Apply([]models.Item{
		item("맥북 에어 M2", "100만원"),
		item("(판매완료) 맥북 에어", "100만원"),
		item("맥북 예약중", "100만원"),
		item("x", "100만원"),
		item("  ", "100만원"),
	}, kw, nil)

	assert.Len(t, out, 1)
}

func TestValidTitle(t *testing.T) {
	assert.True(t, ValidTitle("맥북 에어 M2"))
	assert.False(t, ValidTitle("판매완료된 맥북"))
	assert.False(t, ValidTitle("SOLD OUT 맥북"))
	assert.False(t, ValidTitle(""))
}
