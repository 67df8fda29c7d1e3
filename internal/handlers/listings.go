package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/autoagora/autoagora-backend/internal/models"
	"github.com/autoagora/autoagora-backend/internal/services"
)

type listingRequest struct {
	Make         string   `json:"make"`
	Model        string   `json:"model"`
	Year         int      `json:"year"`
	Price        int      `json:"price"`
	Mileage      int      `json:"mileage"`
	Condition    string   `json:"condition"`
	Color        string   `json:"color"`
	FuelType     string   `json:"fuel_type"`
	Transmission string   `json:"transmission"`
	BodyType     string   `json:"body_type"`
	Description  string   `json:"description"`
	Location     string   `json:"location"`
	ImageURLs    []string `json:"image_urls"`
}

func (r listingRequest) attrs() services.ListingAttrs {
	return services.ListingAttrs{
		Make:         strings.TrimSpace(r.Make),
		Model:        strings.TrimSpace(r.Model),
		Year:         r.Year,
		Price:        r.Price,
		Mileage:      r.Mileage,
		Condition:    strings.ToLower(strings.TrimSpace(r.Condition)),
		Color:        strings.TrimSpace(r.Color),
		FuelType:     strings.TrimSpace(r.FuelType),
		Transmission: strings.TrimSpace(r.Transmission),
		BodyType:     strings.TrimSpace(r.BodyType),
		Description:  strings.TrimSpace(r.Description),
		Location:     strings.TrimSpace(r.Location),
		ImageURLs:    r.ImageURLs,
	}
}

// CreateListing posts a new car listing. Free-tier sellers are capped at
// five available listings; hitting the cap answers 402 with an upgrade
// prompt. The cap is enforced again inside the store's insert so concurrent
// requests cannot overshoot it.
func CreateListing(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}

	var req listingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}

	attrs := req.attrs()
	createdAt := now()
	if err := services.ValidateListingAttrs(attrs, createdAt); err != nil {
		writeServiceError(w, err)
		return
	}

	activeCount, err := listings.CountActiveByOwner(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if decision := quota.CanCreate(user, activeCount); !decision.Allowed {
		writeServiceError(w, services.ErrQuotaExceeded)
		return
	}

	listing, err := listings.Create(r.Context(), user.ID, attrs, createdAt, quota.MaxActive(user))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	quota.RecordFreeCreation(r.Context(), users, user)

	writeJSON(w, http.StatusCreated, APIResponse{Success: true, Message: "Listing created", Data: listing})
}

// parseSearchCriteria maps query parameters onto search predicates.
// Unknown parameters are ignored; malformed numbers drop the predicate.
func parseSearchCriteria(q url.Values) models.SearchCriteria {
	intParam := func(name string) *int {
		raw := strings.TrimSpace(q.Get(name))
		if raw == "" {
			return nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil
		}
		return &n
	}

	criteria := models.SearchCriteria{
		Make:         strings.TrimSpace(q.Get("make")),
		Model:        strings.TrimSpace(q.Get("model")),
		MinYear:      intParam("min_year"),
		MaxYear:      intParam("max_year"),
		MinPrice:     intParam("min_price"),
		MaxPrice:     intParam("max_price"),
		MinMileage:   intParam("min_mileage"),
		MaxMileage:   intParam("max_mileage"),
		Condition:    strings.TrimSpace(q.Get("condition")),
		Location:     strings.TrimSpace(q.Get("location")),
		FuelType:     strings.TrimSpace(q.Get("fuel_type")),
		Transmission: strings.TrimSpace(q.Get("transmission")),
		BodyType:     strings.TrimSpace(q.Get("body_type")),
	}

	switch models.SortKey(strings.TrimSpace(q.Get("sort"))) {
	case models.SortPriceAsc:
		criteria.Sort = models.SortPriceAsc
	case models.SortPriceDesc:
		criteria.Sort = models.SortPriceDesc
	case models.SortYearDesc:
		criteria.Sort = models.SortYearDesc
	case models.SortMileage:
		criteria.Sort = models.SortMileage
	default:
		criteria.Sort = models.SortNewest
	}

	return criteria
}

// SearchListings returns available listings matching the query filters.
// No filters means the full browse feed, newest first.
func SearchListings(w http.ResponseWriter, r *http.Request) {
	criteria := parseSearchCriteria(r.URL.Query())

	results, err := listings.Search(r.Context(), criteria)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if results == nil {
		results = []*models.Listing{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"listings": results,
		"count":    len(results),
	})
}

// GetListing returns a single listing and bumps its view counter.
// Hot reads come from the Redis cache; the view bump is asynchronous and
// best-effort either way.
func GetListing(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, false, "Invalid listing id")
		return
	}

	var listing models.Listing
	cacheKey := services.ListingCacheKey(id.String())
	hit, _ := services.Cache.Get(cacheKey, &listing)
	if !hit {
		fresh, err := listings.GetByID(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		listing = *fresh
		if err := services.Cache.Set(cacheKey, listing); err != nil {
			log.Printf("failed to cache listing %s: %v", id, err)
		}
	}

	if listing.Status == models.ListingDeleted {
		writeMessage(w, http.StatusNotFound, false, "Not found")
		return
	}

	go func(id uuid.UUID) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := listings.IncrementView(ctx, id); err != nil {
			log.Printf("view bump failed for %s: %v", id, err)
		}
	}(id)

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: listing})
}

// MyListings returns all of the caller's listings except deleted ones.
func MyListings(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}

	results, err := listings.ListByOwner(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if results == nil {
		results = []*models.Listing{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"listings": results,
		"count":    len(results),
	})
}

// ownedListing loads the listing from the id route param and checks the
// caller owns it. Writes the error response and returns nil otherwise.
func ownedListing(w http.ResponseWriter, r *http.Request, ownerID uuid.UUID) *models.Listing {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, false, "Invalid listing id")
		return nil
	}

	listing, err := listings.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return nil
	}
	if listing.Status == models.ListingDeleted {
		writeMessage(w, http.StatusNotFound, false, "Not found")
		return nil
	}
	if listing.OwnerID != ownerID {
		writeServiceError(w, services.ErrForbidden)
		return nil
	}
	return listing
}

func invalidateListingCache(id uuid.UUID) {
	if err := services.Cache.Delete(services.ListingCacheKey(id.String())); err != nil {
		log.Printf("failed to invalidate listing cache for %s: %v", id, err)
	}
}

// MarkSold flips the caller's listing to sold. A sold listing leaves search
// results but stays visible by direct link.
func MarkSold(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}
	listing := ownedListing(w, r, user.ID)
	if listing == nil {
		return
	}

	if err := listings.SetStatus(r.Context(), listing.ID, models.ListingSold); err != nil {
		writeServiceError(w, err)
		return
	}
	invalidateListingCache(listing.ID)
	writeMessage(w, http.StatusOK, true, "Listing marked as sold")
}

// MarkAvailable puts a sold listing back on the market. Quota applies again:
// reactivating counts like creating for free-tier sellers.
func MarkAvailable(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}
	listing := ownedListing(w, r, user.ID)
	if listing == nil {
		return
	}
	if listing.Status == models.ListingAvailable {
		writeMessage(w, http.StatusOK, true, "Listing is already available")
		return
	}

	activeCount, err := listings.CountActiveByOwner(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if decision := quota.CanCreate(user, activeCount); !decision.Allowed {
		writeServiceError(w, services.ErrQuotaExceeded)
		return
	}

	if err := listings.SetStatus(r.Context(), listing.ID, models.ListingAvailable); err != nil {
		writeServiceError(w, err)
		return
	}
	invalidateListingCache(listing.ID)
	writeMessage(w, http.StatusOK, true, "Listing marked as available")
}

// RenewListing resets the listing's expiry to a full period from now.
// Premium sellers renew for free; free-tier renewals go through the payment
// checkout and land here only after confirmation.
func RenewListing(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}
	listing := ownedListing(w, r, user.ID)
	if listing == nil {
		return
	}
	if listing.Status == models.ListingSold {
		writeMessage(w, http.StatusBadRequest, false, "Sold listings cannot be renewed")
		return
	}

	if !user.IsPremium() {
		writeJSON(w, http.StatusPaymentRequired, map[string]interface{}{
			"success":          false,
			"message":          "Listing renewal requires payment. Start a checkout with purpose listing_renewal.",
			"payment_required": true,
		})
		return
	}

	if err := renewListing(r.Context(), listing, now()); err != nil {
		writeServiceError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, true, "Listing renewed")
}

// renewListing resets expiry and brings an expired listing back to available.
// Shared by the premium self-serve path and the payment confirmation path.
func renewListing(ctx context.Context, listing *models.Listing, at time.Time) error {
	if err := listings.Renew(ctx, listing.ID, at); err != nil {
		return err
	}
	if listing.Status == models.ListingExpired {
		if err := listings.SetStatus(ctx, listing.ID, models.ListingAvailable); err != nil {
			return err
		}
	}
	invalidateListingCache(listing.ID)
	return nil
}

// UpdateListing overwrites the editable fields of the caller's listing.
func UpdateListing(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}
	listing := ownedListing(w, r, user.ID)
	if listing == nil {
		return
	}

	var req listingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}

	attrs := req.attrs()
	if err := services.ValidateListingAttrs(attrs, now()); err != nil {
		writeServiceError(w, err)
		return
	}

	if err := listings.UpdateAttrs(r.Context(), listing.ID, attrs); err != nil {
		writeServiceError(w, err)
		return
	}
	invalidateListingCache(listing.ID)

	updated, err := listings.GetByID(r.Context(), listing.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Listing updated", Data: updated})
}

// DeleteListing soft-deletes the caller's listing. Deleted listings vanish
// from every read surface but the row stays for audit.
func DeleteListing(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}
	listing := ownedListing(w, r, user.ID)
	if listing == nil {
		return
	}

	if err := listings.SetStatus(r.Context(), listing.ID, models.ListingDeleted); err != nil {
		writeServiceError(w, err)
		return
	}
	invalidateListingCache(listing.ID)
	writeMessage(w, http.StatusOK, true, "Listing deleted")
}
