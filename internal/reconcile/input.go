package reconcile

import (
	"encoding/json"
	"strings"
	"time"
)

// Entity names one reconciled record type; it doubles as the input file stem.
type Entity string

const (
	EntityCategories Entity = "categories"
	EntityProducts   Entity = "products"
	EntityUsers      Entity = "users"
	EntityOrders     Entity = "orders"
	EntityBlogs      Entity = "blogs"
)

// Entities lists every entity in reconciliation order.
var Entities = []Entity{EntityCategories, EntityProducts, EntityUsers, EntityOrders, EntityBlogs}

// ParseEntity resolves a user supplied entity name.
func ParseEntity(value string) (Entity, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, e := range Entities {
		if string(e) == value {
			return e, true
		}
	}
	return "", false
}

// fields is a decoded JSON object; lookups try each alias in order.
type fields map[string]json.RawMessage

func (f fields) raw(keys ...string) json.RawMessage {
	for _, k := range keys {
		if v, ok := f[k]; ok && !isNull(v) {
			return v
		}
	}
	return nil
}

func (f fields) text(keys ...string) string {
	return decodeText(f.raw(keys...))
}

func (f fields) trimmed(keys ...string) string {
	return strings.TrimSpace(f.text(keys...))
}

func (f fields) ref(keys ...string) string {
	return decodeRef(f.raw(keys...))
}

func (f fields) number(keys ...string) *float64 {
	v, ok := decodeNumber(f.raw(keys...))
	if !ok {
		return nil
	}
	return &v
}

func (f fields) integer(keys ...string) int {
	v, _ := decodeInt(f.raw(keys...))
	return v
}

func (f fields) boolean(keys ...string) *bool {
	v, ok := decodeBool(f.raw(keys...))
	if !ok {
		return nil
	}
	return &v
}

func (f fields) date(keys ...string) *time.Time {
	v, ok := decodeDate(f.raw(keys...))
	if !ok {
		return nil
	}
	return &v
}

func (f fields) optional(keys ...string) *string {
	s := f.text(keys...)
	if s == "" {
		return nil
	}
	return &s
}

// CategoryInput is one taxonomy node. ID is the transient identifier other
// inputs use to reference it before reconciliation.
type CategoryInput struct {
	ID       string `json:"_id,omitempty"`
	Slug     string `json:"slug" validate:"required"`
	Name     string `json:"name"`
	IsActive *bool  `json:"is_active,omitempty"`
}

func (c *CategoryInput) UnmarshalJSON(b []byte) error {
	var f fields
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*c = CategoryInput{
		ID:       f.ref("_id", "id"),
		Slug:     f.trimmed("slug"),
		Name:     f.text("name"),
		IsActive: f.boolean("is_active"),
	}
	return nil
}

// ProductInput is one catalog listing. Its category may be given by
// transient id, by slug, or not at all.
type ProductInput struct {
	SKU           string   `json:"sku" validate:"required"`
	Name          string   `json:"name"`
	CategoryID    string   `json:"category_id,omitempty"`
	CategorySlug  string   `json:"category_slug,omitempty"`
	Price         float64  `json:"price"`
	StockQuantity int      `json:"stock_quantity"`
	IsActive      *bool    `json:"is_active,omitempty"`
	Description   string   `json:"description"`
	Images        []string `json:"images"`
}

func (p *ProductInput) UnmarshalJSON(b []byte) error {
	var f fields
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	price := 0.0
	if v := f.number("price"); v != nil {
		price = *v
	}
	*p = ProductInput{
		SKU:           f.trimmed("sku"),
		Name:          f.text("name"),
		CategoryID:    f.ref("category_id"),
		CategorySlug:  f.trimmed("category_slug"),
		Price:         price,
		StockQuantity: f.integer("stock_quantity"),
		IsActive:      f.boolean("is_active"),
		Description:   f.text("description"),
		Images:        decodeStrings(f.raw("images")),
	}
	return nil
}

// UserInput is an account export. Email is normalized at the parse boundary.
type UserInput struct {
	ID           string     `json:"_id,omitempty"`
	Email        string     `json:"email" validate:"required"`
	Password     string     `json:"password,omitempty"`
	PasswordHash string     `json:"password_hash,omitempty"`
	FullName     string     `json:"full_name"`
	Status       string     `json:"status,omitempty"`
	Role         string     `json:"role,omitempty"`
	AvatarURL    string     `json:"avatar_url,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

func (u *UserInput) UnmarshalJSON(b []byte) error {
	var f fields
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*u = UserInput{
		ID:           f.ref("_id", "id"),
		Email:        NormalizeEmail(f.text("email")),
		Password:     f.text("password"),
		PasswordHash: f.text("password_hash"),
		FullName:     f.text("full_name"),
		Status:       f.trimmed("status"),
		Role:         f.trimmed("role"),
		AvatarURL:    f.text("avatar_url"),
		CreatedAt:    f.date("created_at"),
		UpdatedAt:    f.date("updated_at"),
	}
	return nil
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// OrderItemInput is a line of an order. Unparseable numbers decode as zero;
// LineTotal stays nil when absent.
type OrderItemInput struct {
	ProductName string   `json:"product_name"`
	Quantity    int      `json:"quantity"`
	UnitPrice   float64  `json:"unit_price"`
	LineTotal   *float64 `json:"line_total,omitempty"`
}

func (o *OrderItemInput) UnmarshalJSON(b []byte) error {
	var f fields
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	unit := 0.0
	if v := f.number("unit_price"); v != nil {
		unit = *v
	}
	*o = OrderItemInput{
		ProductName: f.text("product_name"),
		Quantity:    f.integer("quantity"),
		UnitPrice:   unit,
		LineTotal:   f.number("line_total"),
	}
	return nil
}

// OrderInput is a purchase export. UserID may be a store id, a legacy
// ObjectId hex string, or {"$oid": ...}.
type OrderInput struct {
	OrderNo         string           `json:"order_no" validate:"required"`
	UserID          string           `json:"user_id"`
	Items           []OrderItemInput `json:"items"`
	Subtotal        *float64         `json:"subtotal,omitempty"`
	TotalAmount     *float64         `json:"total_amount,omitempty"`
	ShippingAddress string           `json:"shipping_address,omitempty"`
	Status          string           `json:"order_status,omitempty"`
	CreatedAt       *time.Time       `json:"created_at,omitempty"`
	UpdatedAt       *time.Time       `json:"updated_at,omitempty"`
}

func (o *OrderInput) UnmarshalJSON(b []byte) error {
	var f fields
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	items, _ := decodeArray[OrderItemInput](f.raw("items"))
	*o = OrderInput{
		OrderNo:         f.trimmed("order_no"),
		UserID:          f.ref("user_id"),
		Items:           items,
		Subtotal:        f.number("subtotal"),
		TotalAmount:     f.number("total_amount"),
		ShippingAddress: f.text("shipping_address", "address"),
		Status:          f.trimmed("order_status"),
		CreatedAt:       f.date("created_at"),
		UpdatedAt:       f.date("updated_at"),
	}
	return nil
}

// CTAInput is a blog call-to-action.
type CTAInput struct {
	Label string `json:"label"`
	Href  string `json:"href"`
	Kind  string `json:"kind,omitempty"`
}

func (c *CTAInput) UnmarshalJSON(b []byte) error {
	var f fields
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*c = CTAInput{Label: f.text("label"), Href: f.text("href"), Kind: f.text("kind")}
	return nil
}

// BlogInput is an editorial post. Category may be given as a display string,
// a slug or a transient category id.
type BlogInput struct {
	ID           string     `json:"_id,omitempty"`
	Title        string     `json:"title" validate:"required"`
	Category     string     `json:"category,omitempty"`
	CategorySlug string     `json:"category_slug,omitempty"`
	CategoryID   string     `json:"category_id,omitempty"`
	Content      string     `json:"content"`
	Lead         *string    `json:"lead,omitempty"`
	DateDisplay  *string    `json:"date_display,omitempty"`
	AttachedFile *string    `json:"attached_file,omitempty"`
	LikeCount    int        `json:"like_count"`
	CommentCount int        `json:"comment_count"`
	ShareCount   int        `json:"share_count"`
	Tags         []string   `json:"tags,omitempty"`
	CTA          []CTAInput `json:"cta,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

func (p *BlogInput) UnmarshalJSON(b []byte) error {
	var f fields
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	cta, _ := decodeArray[CTAInput](f.raw("cta"))
	category := ""
	if raw := f.raw("category"); len(raw) > 0 && raw[0] == '"' {
		category = strings.TrimSpace(decodeText(raw))
	}
	*p = BlogInput{
		ID:           f.ref("_id", "id"),
		Title:        f.trimmed("title"),
		Category:     category,
		CategorySlug: f.trimmed("category_slug"),
		CategoryID:   f.ref("category_id"),
		Content:      f.text("content"),
		Lead:         f.optional("lead"),
		DateDisplay:  f.optional("date_display"),
		AttachedFile: f.optional("attached_file"),
		LikeCount:    f.integer("like_count"),
		CommentCount: f.integer("comment_count"),
		ShareCount:   f.integer("share_count"),
		Tags:         decodeStrings(f.raw("tags")),
		CTA:          cta,
		CreatedAt:    f.date("created_at"),
		UpdatedAt:    f.date("updated_at"),
	}
	return nil
}
