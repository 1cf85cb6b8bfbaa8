package controllers

import (
	"net/http"
	"strings"

	"github.com/nearmarket/nearmarket-backend/api/responses"
	"github.com/nearmarket/nearmarket-backend/api/validators"
	"github.com/nearmarket/nearmarket-backend/internal/catalog"
	pkgerrors "github.com/nearmarket/nearmarket-backend/pkg/errors"
	"github.com/nearmarket/nearmarket-backend/pkg/logger"
)

// PublicVendors lists verified vendors with optional text and geo filters.
func PublicVendors(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lat, lng, err := validators.ParseCoordinates(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		radius, err := validators.ParseQueryFloat(r, "radius_km")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := catalog.VendorSearchParams{
			Query: strings.TrimSpace(r.URL.Query().Get("q")),
			Lat:   lat,
			Lng:   lng,
			Page:  page,
		}
		if radius != nil {
			params.RadiusKM = *radius
		}

		result, err := svc.SearchVendors(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// PublicVendor returns a vendor storefront with products and reviews.
func PublicVendor(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		vendorID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lat, lng, err := validators.ParseCoordinates(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.GetVendor(r.Context(), vendorID, lat, lng)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// PublicProducts searches active products across verified vendors.
func PublicProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lat, lng, err := validators.ParseCoordinates(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		minPrice, err := validators.ParseQueryDecimal(r, "min_price")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		maxPrice, err := validators.ParseQueryDecimal(r, "max_price")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := catalog.ProductSearchParams{
			Query:        strings.TrimSpace(r.URL.Query().Get("q")),
			CategorySlug: strings.TrimSpace(r.URL.Query().Get("category")),
			MinPrice:     minPrice,
			MaxPrice:     maxPrice,
			Sort:         strings.TrimSpace(r.URL.Query().Get("sort")),
			Lat:          lat,
			Lng:          lng,
			Page:         page,
		}

		result, err := svc.SearchProducts(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// PublicProduct returns a product detail with reviews and related items.
func PublicProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// PublicCategories lists all categories with product counts.
func PublicCategories(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		result, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
