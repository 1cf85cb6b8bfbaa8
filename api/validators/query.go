package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/nearmarket/nearmarket-backend/pkg/errors"
	"github.com/nearmarket/nearmarket-backend/pkg/pagination"
)

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParseQueryFloat returns nil when the parameter is absent.
func ParseQueryFloat(r *http.Request, key string) (*float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	return &value, nil
}

// ParseQueryDecimal returns nil when the parameter is absent.
func ParseQueryDecimal(r *http.Request, key string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a decimal number").WithDetails(map[string]any{"field": key})
	}
	return &value, nil
}

// ParsePagination reads page and limit; out-of-range values are clamped downstream.
func ParsePagination(r *http.Request) (pagination.Params, error) {
	page, err := ParseQueryInt(r, "page", 0, 0, 1000000)
	if err != nil {
		return pagination.Params{}, err
	}
	limit, err := ParseQueryInt(r, "limit", 0, 0, 1000000)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Page: page, Limit: limit}, nil
}

// ParseCoordinates reads the lat/lng pair. Both must be present or both absent.
func ParseCoordinates(r *http.Request) (lat, lng *float64, err error) {
	lat, err = ParseQueryFloat(r, "lat")
	if err != nil {
		return nil, nil, err
	}
	lng, err = ParseQueryFloat(r, "lng")
	if err != nil {
		return nil, nil, err
	}
	if (lat == nil) != (lng == nil) {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "lat and lng must be provided together")
	}
	if lat != nil {
		if *lat < -90 || *lat > 90 {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "lat out of range").WithDetails(map[string]any{"field": "lat", "min": -90, "max": 90})
		}
		if *lng < -180 || *lng > 180 {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "lng out of range").WithDetails(map[string]any{"field": "lng", "min": -180, "max": 180})
		}
	}
	return lat, lng, nil
}
