package manipulation

import (
	"context"
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/beancount-plugins/ast"
	"github.com/robinvdvleuten/beancount-plugins/parser"
)

func TestOriginalPrice(t *testing.T) {
	config := `{'manipulators': [{'type': 'posting-consolidator-original-price', 'consolidate-price-account-postfix': 'Price', 'consolidate-discount-account-postfix': 'Discount', 'metadata-name-original-price': 'original-price'}]}`

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name: "no consolidation",
			source: `2010-08-31 open Expenses:Bread

2013-06-03 * "Purchase"
  Assets:Bank:Checking      -10 USD
  Expenses:Bread             10 USD
`,
			want: `2010-08-31 open Expenses:Bread
2013-06-03 "Purchase"
  Assets:Bank:Checking -10 USD
  Expenses:Bread 10 USD
`,
		},
		{
			name: "original price",
			source: `2010-08-31 open Expenses:Bread

2013-06-03 * "Purchase"
  Assets:Bank:Checking       -8 USD
  Expenses:Bread              8 USD
    original-price:          10 USD

2013-06-10 * "Purchase"
  Assets:Bank:Checking       -9 USD
  Expenses:Bread              9 USD
`,
			want: `2010-08-31 open Expenses:Bread:Price
2010-08-31 open Expenses:Bread:Discount
2013-06-03 "Purchase"
  Assets:Bank:Checking -8 USD
  Expenses:Bread:Price 10 USD
  Expenses:Bread:Discount -2 USD
2013-06-10 "Purchase"
  Assets:Bank:Checking -9 USD
  Expenses:Bread:Price 9 USD
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, render(apply(t, config, tt.source)))
		})
	}
}

func TestOriginalPriceKeepsMetadata(t *testing.T) {
	config := `{'manipulators': [{'type': 'posting-consolidator-original-price', 'metadata-name-original-price': 'original-price'}]}`

	out := apply(t, config, `2013-06-03 * "Purchase"
  Assets:Bank:Checking       -8 USD
  ! Expenses:Bread            8 USD
    original-price:          10 USD
    shop: "Tesco"
`)

	txn := out[0].(*ast.Transaction)
	assert.Equal(t, 3, len(txn.Postings))

	price, discount := txn.Postings[1], txn.Postings[2]
	assert.Equal(t, "!", price.Flag)
	assert.False(t, ast.Has(price.Metadata, "original-price"))
	assert.True(t, ast.Has(price.Metadata, "shop"))
	assert.Equal(t, "!", discount.Flag)
	assert.Zero(t, discount.Metadata)
}

func TestDiscounter(t *testing.T) {
	config := `{'manipulators': [{'type': 'posting-consolidator-discounter', 'consolidate-price-account-postfix': 'Price', 'consolidate-discount-account-postfix': 'Spar:Coupons', 'metadata-name-discount': 'spar-coupons-discount-amount'}]}`

	out := apply(t, config, `2010-08-31 open Expenses:Cleaning:Detergent:Ariel

2013-06-03 * "Purchase"
  Assets:Bank:Checking                 -3,999 HUF
  Expenses:Cleaning:Detergent:Ariel      2.15 L_DETERGENT {1,860 HUF}
    spar-coupons-discount-amount:       1,000 HUF
`)

	assert.Equal(t, `2010-08-31 open Expenses:Cleaning:Detergent:Ariel:Price
2010-08-31 open Expenses:Cleaning:Detergent:Ariel:Spar:Coupons
2013-06-03 "Purchase"
  Assets:Bank:Checking -3999 HUF
  Expenses:Cleaning:Detergent:Ariel:Price 2.15 L_DETERGENT {1860 HUF}
  Expenses:Cleaning:Detergent:Ariel:Price 1000 HUF
  Expenses:Cleaning:Detergent:Ariel:Spar:Coupons -1000 HUF
`, render(out))

	txn := out[2].(*ast.Transaction)
	assert.False(t, ast.Has(txn.Postings[1].Metadata, "spar-coupons-discount-amount"))
}

func TestExtractorRequiresAmount(t *testing.T) {
	config := `{'manipulators': [{'type': 'posting-consolidator-discounter', 'metadata-name-discount': 'coupon'}]}`

	ctx := context.Background()
	tree := parser.MustParseString(ctx, `2013-06-03 * "Purchase"
  Assets:Bank:Checking       -8 USD
  Expenses:Bread              8 USD
    coupon: "ten percent"
`)

	_, _, err := NewPlugin().Apply(ctx, tree.Directives, config)

	var missing *MissingFieldError
	assert.True(t, errors.As(err, &missing))
	assert.Equal(t, `field "coupon" must be an amount on posting Expenses:Bread`, missing.Error())
}
