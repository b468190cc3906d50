package api

import (
	"errors"
	"fmt"
	"net/http"

	"currencyconverter/internal/service"
)

// CurrenciesResponse lists every currency as a [code, name] pair sorted by code.
type CurrenciesResponse struct {
	Currencies [][2]string `json:"currencies"`
}

// ConvertResponse holds the converted amount.
type ConvertResponse struct {
	ConvertedAmount float64 `json:"convertedAmount" example:"109.890109"`
}

// HandleListCurrencies godoc
// @Summary List supported currencies
// @Description Returns every currency the rate provider knows about as [code, name] pairs, sorted by code.
// @Tags currencies
// @Produce json
// @Success 200 {object} CurrenciesResponse "Currency list"
// @Failure 502 {object} ErrorResponse "Symbols could not be retrieved"
// @Router /currencies [get]
func HandleListCurrencies(svc service.CurrencyServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currencies, err := svc.ListCurrencies(r.Context())
		if err != nil {
			writeError(w, http.StatusBadGateway, "Could not retrieve symbols from the API")
			return
		}

		resp := CurrenciesResponse{Currencies: make([][2]string, 0, len(currencies))}
		for _, c := range currencies {
			resp.Currencies = append(resp.Currencies, [2]string{c.Code, c.Name})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleConvert godoc
// @Summary Convert an amount between two currencies
// @Description Converts amount from one currency to another using the latest provider rate. Identical currencies return the amount unchanged.
// @Tags conversion
// @Produce json
// @Param from query string true "Source currency code" minlength(3) maxlength(3)
// @Param to query string true "Target currency code" minlength(3) maxlength(3)
// @Param amount query number true "Amount in the source currency"
// @Success 200 {object} ConvertResponse "Converted amount"
// @Failure 400 {object} ErrorResponse "Missing or malformed parameters"
// @Failure 502 {object} ErrorResponse "Rate could not be retrieved"
// @Router /convert [get]
func HandleConvert(svc service.ConversionServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		from, to := q.Get("from"), q.Get("to")

		res, err := svc.Convert(r.Context(), from, to, q.Get("amount"))
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidInput):
				writeError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, service.ErrRateUnavailable):
				writeError(w, http.StatusBadGateway,
					fmt.Sprintf("Could not retrieve rates to convert from %s to %s", from, to))
			default:
				writeError(w, http.StatusInternalServerError, "Internal error")
			}
			return
		}

		writeJSON(w, http.StatusOK, ConvertResponse{ConvertedAmount: res.ConvertedAmount.InexactFloat64()})
	}
}
