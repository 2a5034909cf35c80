package zerodha

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-trader/internal/types"
)

func TestKiteInterval(t *testing.T) {
	assert.Equal(t, "60minute", kiteInterval("1h"))
	assert.Equal(t, "day", kiteInterval("1d"))
	assert.Equal(t, "3minute", kiteInterval("3minute"))
}

func TestShortTag(t *testing.T) {
	assert.Equal(t, "0f8fad5bd9cb469fa165", shortTag("0f8fad5b-d9cb-469f-a165-70867728950e"))
	assert.Equal(t, "abc", shortTag("abc"))
}

func TestInstrumentMapperLoadsOnce(t *testing.T) {
	im := newInstrumentMapper()
	calls := 0
	load := func() (map[string]int, error) {
		calls++
		return map[string]int{"INFY": 408065, "TCS": 2953217}, nil
	}

	tok, err := im.resolve("INFY", load)
	require.NoError(t, err)
	assert.Equal(t, 408065, tok)

	tok, err = im.resolve("TCS", load)
	require.NoError(t, err)
	assert.Equal(t, 2953217, tok)

	_, err = im.resolve("NOPE", load)
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestInstrumentMapperLoadError(t *testing.T) {
	im := newInstrumentMapper()
	_, err := im.resolve("INFY", func() (map[string]int, error) { return nil, errors.New("boom") })
	require.Error(t, err)
	assert.False(t, im.isLoaded())
}

func TestPlaceMarketOrderRejectsBeforeNetwork(t *testing.T) {
	z := NewZerodha(Params{APIKey: "k", AccessToken: "t", BaseURI: "http://127.0.0.1:1"})

	_, err := z.PlaceMarketOrder(context.Background(), types.OrderReq{Symbol: "INFY", Side: types.ActionHold, Qty: decimal.NewFromInt(1)})
	assert.Error(t, err)

	_, err = z.PlaceMarketOrder(context.Background(), types.OrderReq{Symbol: "INFY", Side: types.ActionBuy, Qty: decimal.RequireFromString("0.5")})
	assert.ErrorContains(t, err, "whole number")
}
