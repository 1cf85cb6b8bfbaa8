package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nearmarket/nearmarket-backend/pkg/geo"
	"github.com/nearmarket/nearmarket-backend/pkg/pagination"
)

// Sort orders accepted by product search.
const (
	SortDistance = "distance"
	SortPrice    = "price"
	SortRating   = "rating"
)

// VendorSearchParams filters the public vendor listing.
type VendorSearchParams struct {
	Query    string
	Lat      *float64
	Lng      *float64
	RadiusKM float64
	Page     pagination.Params
}

// ProductSearchParams filters the public product listing.
type ProductSearchParams struct {
	Query        string
	CategorySlug string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	Sort         string
	Lat          *float64
	Lng          *float64
	Page         pagination.Params
}

// vendorRow is the scan target for vendor search and detail queries.
type vendorRow struct {
	ID           uuid.UUID `gorm:"column:id"`
	UserID       uuid.UUID `gorm:"column:user_id"`
	ShopName     string    `gorm:"column:shop_name"`
	Description  *string   `gorm:"column:description"`
	Phone        *string   `gorm:"column:phone"`
	Email        *string   `gorm:"column:email"`
	Address      *string   `gorm:"column:address"`
	City         *string   `gorm:"column:city"`
	State        *string   `gorm:"column:state"`
	Zip          *string   `gorm:"column:zip"`
	Country      *string   `gorm:"column:country"`
	Lat          *float64  `gorm:"column:lat"`
	Lng          *float64  `gorm:"column:lng"`
	Verified     bool      `gorm:"column:verified"`
	ProductCount int64     `gorm:"column:product_count"`
	AvgRating    float64   `gorm:"column:avg_rating"`
	ReviewCount  int64     `gorm:"column:review_count"`
	DistanceKM   *float64  `gorm:"column:distance_km"`
}

// productRow is the scan target for product search and detail queries.
type productRow struct {
	ID             uuid.UUID       `gorm:"column:id"`
	Name           string          `gorm:"column:name"`
	Description    *string         `gorm:"column:description"`
	Price          decimal.Decimal `gorm:"column:price"`
	StockQty       int             `gorm:"column:stock_qty"`
	ImageURL       *string         `gorm:"column:image_url"`
	CategoryID     uuid.UUID       `gorm:"column:category_id"`
	CreatedAt      time.Time       `gorm:"column:created_at"`
	VendorID       uuid.UUID       `gorm:"column:vendor_profile_id"`
	VendorName     string          `gorm:"column:vendor_shop_name"`
	VendorCity     *string         `gorm:"column:vendor_city"`
	VendorVerified bool            `gorm:"column:vendor_verified"`
	AvgRating      float64         `gorm:"column:avg_rating"`
	ReviewCount    int64           `gorm:"column:review_count"`
	DistanceKM     *float64        `gorm:"column:distance_km"`
}

// Repository runs the public read queries.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

const vendorAggregateSelect = `vp.id, vp.user_id, vp.shop_name, vp.description, vp.phone, vp.email,
vp.address, vp.city, vp.state, vp.zip, vp.country, vp.lat, vp.lng, vp.verified,
COUNT(DISTINCT p.id) AS product_count,
COALESCE(AVG(r.rating), 0) AS avg_rating,
COUNT(DISTINCT r.id) AS review_count`

const vendorAggregateFrom = `FROM vendor_profiles vp
LEFT JOIN products p ON p.vendor_id = vp.user_id AND p.active = ?
LEFT JOIN reviews r ON r.target_type = 'vendor' AND r.target_id = vp.id AND r.hidden = ?`

// SearchVendors lists verified vendors with aggregates, optionally filtered by
// free text and caller proximity.
func (r *Repository) SearchVendors(ctx context.Context, params VendorSearchParams) ([]vendorRow, int64, error) {
	page := pagination.Normalize(params.Page)
	useGeo := params.Lat != nil && params.Lng != nil
	radius := params.RadiusKM
	if radius <= 0 {
		radius = geo.DefaultRadiusKM
	}

	// Bind order follows placeholder order in the query text: the distance
	// placeholders in the SELECT list come before the join placeholders.
	selectClause := vendorAggregateSelect
	selectArgs := []any{}
	if useGeo {
		selectClause += ",\n" + geo.DistanceSQL + " AS distance_km"
		selectArgs = append(selectArgs, *params.Lat, *params.Lng, *params.Lat)
	}
	fromArgs := []any{true, false}

	where := []string{"vp.verified = ?"}
	whereArgs := []any{true}
	if q := strings.TrimSpace(params.Query); q != "" {
		where = append(where, "(LOWER(vp.shop_name) LIKE ? OR LOWER(vp.city) LIKE ? OR LOWER(vp.description) LIKE ?)")
		pattern := "%" + strings.ToLower(q) + "%"
		whereArgs = append(whereArgs, pattern, pattern, pattern)
	}
	if useGeo {
		where = append(where, "vp.lat IS NOT NULL", "vp.lng IS NOT NULL")
	}

	having := ""
	havingArgs := []any{}
	orderBy := "avg_rating DESC, vp.created_at DESC"
	if useGeo {
		having = "HAVING " + geo.DistanceSQL + " <= ?"
		havingArgs = append(havingArgs, *params.Lat, *params.Lng, *params.Lat, radius)
		orderBy = "distance_km ASC, avg_rating DESC"
	}

	query := fmt.Sprintf(`SELECT %s
%s
WHERE %s
GROUP BY vp.id
%s
ORDER BY %s
LIMIT ? OFFSET ?`, selectClause, vendorAggregateFrom, strings.Join(where, " AND "), having, orderBy)

	args := append(append([]any{}, selectArgs...), fromArgs...)
	args = append(append(args, whereArgs...), havingArgs...)
	args = append(args, page.Limit, page.Offset())

	var rows []vendorRow
	if err := r.db.WithContext(ctx).Raw(replaceVendorColumns(query), args...).Scan(&rows).Error; err != nil {
		return nil, 0, err
	}

	// Count ignores aggregates; the distance filter moves into WHERE.
	countWhere := append([]string{}, where...)
	countArgs := append([]any{}, whereArgs...)
	if useGeo {
		countWhere = append(countWhere, replaceVendorColumns(geo.DistanceSQL)+" <= ?")
		countArgs = append(countArgs, *params.Lat, *params.Lng, *params.Lat, radius)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM vendor_profiles vp WHERE %s", strings.Join(countWhere, " AND "))

	var total int64
	if err := r.db.WithContext(ctx).Raw(countQuery, countArgs...).Scan(&total).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// FindVendorByID loads one vendor with aggregates, regardless of distance.
func (r *Repository) FindVendorByID(ctx context.Context, id uuid.UUID) (*vendorRow, error) {
	query := fmt.Sprintf(`SELECT %s
%s
WHERE vp.id = ?
GROUP BY vp.id`, vendorAggregateSelect, vendorAggregateFrom)

	var rows []vendorRow
	if err := r.db.WithContext(ctx).Raw(replaceVendorColumns(query), true, false, id).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

const productAggregateSelect = `p.id, p.name, p.description, p.price, p.stock_qty, p.image_url,
p.category_id, p.created_at,
vp.id AS vendor_profile_id, vp.shop_name AS vendor_shop_name, vp.city AS vendor_city,
vp.verified AS vendor_verified,
COALESCE(AVG(r.rating), 0) AS avg_rating,
COUNT(DISTINCT r.id) AS review_count`

const productAggregateFrom = `FROM products p
JOIN vendor_profiles vp ON vp.user_id = p.vendor_id
JOIN categories c ON c.id = p.category_id
LEFT JOIN reviews r ON r.target_type = 'product' AND r.target_id = p.id AND r.hidden = ?`

// SearchProducts lists active products of verified vendors.
func (r *Repository) SearchProducts(ctx context.Context, params ProductSearchParams) ([]productRow, int64, error) {
	page := pagination.Normalize(params.Page)
	useGeo := params.Sort == SortDistance && params.Lat != nil && params.Lng != nil

	// As in SearchVendors, the distance placeholders precede the review
	// join's hidden placeholder in the query text.
	selectClause := productAggregateSelect
	selectArgs := []any{}
	if useGeo {
		selectClause += ",\n" + replaceVendorColumns(geo.DistanceSQL) + " AS distance_km"
		selectArgs = append(selectArgs, *params.Lat, *params.Lng, *params.Lat)
	}
	fromArgs := []any{false}

	where := []string{"p.active = ?", "vp.verified = ?"}
	whereArgs := []any{true, true}
	if q := strings.TrimSpace(params.Query); q != "" {
		where = append(where, "(LOWER(p.name) LIKE ? OR LOWER(p.description) LIKE ? OR LOWER(vp.shop_name) LIKE ?)")
		pattern := "%" + strings.ToLower(q) + "%"
		whereArgs = append(whereArgs, pattern, pattern, pattern)
	}
	if params.CategorySlug != "" {
		where = append(where, "c.slug = ?")
		whereArgs = append(whereArgs, params.CategorySlug)
	}
	if params.MinPrice != nil {
		where = append(where, "p.price >= ?")
		whereArgs = append(whereArgs, *params.MinPrice)
	}
	if params.MaxPrice != nil {
		where = append(where, "p.price <= ?")
		whereArgs = append(whereArgs, *params.MaxPrice)
	}
	if useGeo {
		where = append(where, "vp.lat IS NOT NULL", "vp.lng IS NOT NULL")
	}

	orderBy := "p.created_at DESC"
	switch params.Sort {
	case SortDistance:
		if useGeo {
			orderBy = "distance_km ASC, p.created_at DESC"
		}
	case SortPrice:
		orderBy = "p.price ASC"
	case SortRating:
		orderBy = "avg_rating DESC, review_count DESC"
	}

	query := fmt.Sprintf(`SELECT %s
%s
WHERE %s
GROUP BY p.id, vp.id, c.id
ORDER BY %s
LIMIT ? OFFSET ?`, selectClause, productAggregateFrom, strings.Join(where, " AND "), orderBy)

	args := append(append([]any{}, selectArgs...), fromArgs...)
	args = append(append(args, whereArgs...), page.Limit, page.Offset())

	var rows []productRow
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, 0, err
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM products p
JOIN vendor_profiles vp ON vp.user_id = p.vendor_id
JOIN categories c ON c.id = p.category_id
WHERE %s`, strings.Join(where, " AND "))

	var total int64
	if err := r.db.WithContext(ctx).Raw(countQuery, whereArgs...).Scan(&total).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// FindProductByID loads one active product row with vendor fields and rating
// aggregates.
func (r *Repository) FindProductByID(ctx context.Context, id uuid.UUID) (*productRow, error) {
	query := fmt.Sprintf(`SELECT %s
%s
WHERE p.id = ? AND p.active = ?
GROUP BY p.id, vp.id, c.id`, productAggregateSelect, productAggregateFrom)

	var rows []productRow
	if err := r.db.WithContext(ctx).Raw(query, false, id, true).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

// ListVendorProducts returns the vendor's most recent active products.
func (r *Repository) ListVendorProducts(ctx context.Context, vendorUserID uuid.UUID, limit int) ([]productRow, error) {
	query := fmt.Sprintf(`SELECT %s
%s
WHERE p.vendor_id = ? AND p.active = ?
GROUP BY p.id, vp.id, c.id
ORDER BY p.created_at DESC
LIMIT ?`, productAggregateSelect, productAggregateFrom)

	var rows []productRow
	if err := r.db.WithContext(ctx).Raw(query, false, vendorUserID, true, limit).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListRelatedProducts picks up to limit sibling products of the same vendor
// and category in randomized order.
func (r *Repository) ListRelatedProducts(ctx context.Context, product *productRow, vendorUserID uuid.UUID, limit int) ([]productRow, error) {
	query := fmt.Sprintf(`SELECT %s
%s
WHERE p.category_id = ? AND p.vendor_id = ? AND p.id <> ? AND p.active = ?
GROUP BY p.id, vp.id, c.id
ORDER BY RANDOM()
LIMIT ?`, productAggregateSelect, productAggregateFrom)

	var rows []productRow
	if err := r.db.WithContext(ctx).Raw(query, false, product.CategoryID, vendorUserID, product.ID, true, limit).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// reviewRow joins reviewer names onto review rows.
type reviewRow struct {
	ID           uuid.UUID  `gorm:"column:id"`
	ReviewerName string     `gorm:"column:reviewer_name"`
	Rating       int        `gorm:"column:rating"`
	Comment      *string    `gorm:"column:comment"`
	VendorReply  *string    `gorm:"column:vendor_reply"`
	RepliedAt    *time.Time `gorm:"column:replied_at"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
}

// ListRecentReviews returns the newest visible reviews for the target.
func (r *Repository) ListRecentReviews(ctx context.Context, targetType string, targetID uuid.UUID, limit int) ([]reviewRow, error) {
	var rows []reviewRow
	err := r.db.WithContext(ctx).Raw(`SELECT rv.id, u.name AS reviewer_name, rv.rating, rv.comment,
rv.vendor_reply, rv.replied_at, rv.created_at
FROM reviews rv
JOIN users u ON u.id = rv.reviewer_id
WHERE rv.target_type = ? AND rv.target_id = ? AND rv.hidden = ?
ORDER BY rv.created_at DESC
LIMIT ?`, targetType, targetID, false, limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListCategories returns every category with its active product count.
func (r *Repository) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	var rows []CategoryDTO
	err := r.db.WithContext(ctx).Raw(`SELECT c.id, c.name, c.slug, c.description,
COUNT(p.id) AS product_count
FROM categories c
LEFT JOIN products p ON p.category_id = c.id AND p.active = ?
GROUP BY c.id
ORDER BY c.name ASC`, true).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// replaceVendorColumns qualifies the bare lat/lng columns in the shared
// distance expression for queries rooted at the vp alias.
func replaceVendorColumns(expr string) string {
	expr = strings.ReplaceAll(expr, "radians(lat)", "radians(vp.lat)")
	return strings.ReplaceAll(expr, "radians(lng)", "radians(vp.lng)")
}
