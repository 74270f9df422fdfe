package price

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse_PlainWon(t *testing.T) {
	assert.Equal(t, 10000, Parse("10,000원"))
	assert.Equal(t, 100000, Parse("100,000원"))
	assert.Equal(t, 1200000, Parse("1,200,000"))
	assert.Equal(t, 35000, Parse("35000원"))
}

func TestParse_ManUnits(t *testing.T) {
	assert.Equal(t, 100000, Parse("10만"))
	assert.Equal(t, 100000, Parse("10만원"))
	assert.Equal(t, 12000, Parse("1.2만"))
	assert.Equal(t, 1200000, Parse("120만원"))
}

func TestParse_ManWithTail(t *testing.T) {
	assert.Equal(t, 25000, Parse("2만5천"))
	assert.Equal(t, 25000, Parse("2만5000"))
	assert.Equal(t, 25000, Parse("2만5"))
	assert.Equal(t, 13500, Parse("1만3500"))
}

func TestParse_ThousandOnly(t *testing.T) {
	assert.Equal(t, 5000, Parse("5천"))
	assert.Equal(t, 5500, Parse("5.5천원"))
}

func TestParse_Free(t *testing.T) {
	assert.Equal(t, 0, Parse("무료나눔"))
	assert.Equal(t, 0, Parse("무료"))
	assert.Equal(t, 0, Parse("나눔"))
	assert.Equal(t, 0, Parse("무나"))
}

func TestParse_Unknown(t *testing.T) {
	assert.Equal(t, 0, Parse(""))
	assert.Equal(t, 0, Parse("   "))
	assert.Equal(t, 0, Parse("가격문의"))
	assert.Equal(t, 0, Parse("0"))
}

func TestParse_NoisyInput(t *testing.T) {
	assert.Equal(t, 10000, Parse("10,000원 (택포)"))
	assert.Equal(t, 10000, Parse("KRW 10,000"))
	assert.Equal(t, 10000, Parse("￦10,000"))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "10,000원", Format(10000))
	assert.Equal(t, "1,200,000원", Format(1200000))
	assert.Equal(t, "999원", Format(999))
	assert.Equal(t, "가격문의", Format(0))
	assert.Equal(t, "가격문의", Format(-100))
}
