package mongostore

import (
	"time"

	"github.com/angelmondragon/catalogsync/pkg/db/models"
	dbtypes "github.com/angelmondragon/catalogsync/pkg/db/types"
	"github.com/angelmondragon/catalogsync/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Documents keep ids as canonical UUID strings and money as Decimal128.

type categoryDoc struct {
	ID        string    `bson:"_id"`
	Slug      string    `bson:"slug"`
	Name      string    `bson:"name"`
	IsActive  bool      `bson:"is_active"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type productDoc struct {
	ID            string               `bson:"_id"`
	SKU           string               `bson:"sku"`
	Name          string               `bson:"name"`
	CategoryID    string               `bson:"category_id"`
	Price         primitive.Decimal128 `bson:"price"`
	StockQuantity int                  `bson:"stock_quantity"`
	IsActive      bool                 `bson:"is_active"`
	Description   string               `bson:"description"`
	Images        []string             `bson:"images"`
	CreatedAt     time.Time            `bson:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at"`
}

type userDoc struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	FullName     string    `bson:"full_name"`
	Status       string    `bson:"status"`
	Role         string    `bson:"role"`
	AvatarURL    string    `bson:"avatar_url"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

type lineItemDoc struct {
	ProductName string               `bson:"product_name"`
	Quantity    int                  `bson:"quantity"`
	UnitPrice   primitive.Decimal128 `bson:"unit_price"`
	LineTotal   primitive.Decimal128 `bson:"line_total"`
}

type orderDoc struct {
	ID              string               `bson:"_id"`
	OrderNo         string               `bson:"order_no"`
	UserID          string               `bson:"user_id"`
	Items           []lineItemDoc        `bson:"items"`
	Subtotal        primitive.Decimal128 `bson:"subtotal"`
	TotalAmount     primitive.Decimal128 `bson:"total_amount"`
	ShippingAddress string               `bson:"shipping_address"`
	Status          string               `bson:"order_status"`
	CreatedAt       time.Time            `bson:"created_at"`
	UpdatedAt       time.Time            `bson:"updated_at"`
}

type ctaDoc struct {
	Label string `bson:"label"`
	Href  string `bson:"href"`
	Kind  string `bson:"kind,omitempty"`
}

type blogDoc struct {
	ID           string    `bson:"_id"`
	Title        string    `bson:"title"`
	DateDisplay  *string   `bson:"date_display"`
	Category     string    `bson:"category"`
	Content      string    `bson:"content"`
	Lead         *string   `bson:"lead"`
	AttachedFile *string   `bson:"attached_file"`
	LikeCount    int       `bson:"like_count"`
	CommentCount int       `bson:"comment_count"`
	ShareCount   int       `bson:"share_count"`
	Tags         []string  `bson:"tags"`
	CTA          []ctaDoc  `bson:"cta"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func toDecimal128(d decimal.Decimal) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.NewDecimal128(0, 0)
	}
	return v
}

func fromDecimal128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// mongo stores milliseconds; the reconciler compares stored and desired
// timestamps, so both sides are cut to the same precision here.
func storeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func newCategoryDoc(c *models.Category) categoryDoc {
	return categoryDoc{
		ID:        c.ID.String(),
		Slug:      c.Slug,
		Name:      c.Name,
		IsActive:  c.IsActive,
		CreatedAt: storeTime(c.CreatedAt),
		UpdatedAt: storeTime(c.UpdatedAt),
	}
}

func (d categoryDoc) model() *models.Category {
	return &models.Category{
		ID:        parseID(d.ID),
		Slug:      d.Slug,
		Name:      d.Name,
		IsActive:  d.IsActive,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

func newProductDoc(p *models.Product) productDoc {
	images := []string(p.Images)
	if images == nil {
		images = []string{}
	}
	return productDoc{
		ID:            p.ID.String(),
		SKU:           p.SKU,
		Name:          p.Name,
		CategoryID:    p.CategoryID.String(),
		Price:         toDecimal128(p.Price),
		StockQuantity: p.StockQuantity,
		IsActive:      p.IsActive,
		Description:   p.Description,
		Images:        images,
		CreatedAt:     storeTime(p.CreatedAt),
		UpdatedAt:     storeTime(p.UpdatedAt),
	}
}

func (d productDoc) model() *models.Product {
	images := dbtypes.StringList(d.Images)
	if images == nil {
		images = dbtypes.StringList{}
	}
	return &models.Product{
		ID:            parseID(d.ID),
		SKU:           d.SKU,
		Name:          d.Name,
		CategoryID:    parseID(d.CategoryID),
		Price:         fromDecimal128(d.Price),
		StockQuantity: d.StockQuantity,
		IsActive:      d.IsActive,
		Description:   d.Description,
		Images:        images,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
}

func newUserDoc(u *models.User) userDoc {
	return userDoc{
		ID:           u.ID.String(),
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		FullName:     u.FullName,
		Status:       string(u.Status),
		Role:         string(u.Role),
		AvatarURL:    u.AvatarURL,
		CreatedAt:    storeTime(u.CreatedAt),
		UpdatedAt:    storeTime(u.UpdatedAt),
	}
}

func (d userDoc) model() *models.User {
	return &models.User{
		ID:           parseID(d.ID),
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		FullName:     d.FullName,
		Status:       enums.UserStatus(d.Status),
		Role:         enums.UserRole(d.Role),
		AvatarURL:    d.AvatarURL,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

func newOrderDoc(o *models.Order) orderDoc {
	items := make([]lineItemDoc, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, lineItemDoc{
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   toDecimal128(it.UnitPrice),
			LineTotal:   toDecimal128(it.LineTotal),
		})
	}
	return orderDoc{
		ID:              o.ID.String(),
		OrderNo:         o.OrderNo,
		UserID:          o.UserID.String(),
		Items:           items,
		Subtotal:        toDecimal128(o.Subtotal),
		TotalAmount:     toDecimal128(o.TotalAmount),
		ShippingAddress: o.ShippingAddress,
		Status:          string(o.Status),
		CreatedAt:       storeTime(o.CreatedAt),
		UpdatedAt:       storeTime(o.UpdatedAt),
	}
}

func (d orderDoc) model() *models.Order {
	items := make([]models.OrderLineItem, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, models.OrderLineItem{
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   fromDecimal128(it.UnitPrice),
			LineTotal:   fromDecimal128(it.LineTotal),
		})
	}
	return &models.Order{
		ID:              parseID(d.ID),
		OrderNo:         d.OrderNo,
		UserID:          parseID(d.UserID),
		Items:           items,
		Subtotal:        fromDecimal128(d.Subtotal),
		TotalAmount:     fromDecimal128(d.TotalAmount),
		ShippingAddress: d.ShippingAddress,
		Status:          enums.OrderStatus(d.Status),
		CreatedAt:       d.CreatedAt.UTC(),
		UpdatedAt:       d.UpdatedAt.UTC(),
	}
}

func newBlogDoc(b *models.Blog) blogDoc {
	tags := []string(b.Tags)
	if tags == nil {
		tags = []string{}
	}
	var cta []ctaDoc
	for _, c := range b.CTA {
		cta = append(cta, ctaDoc{Label: c.Label, Href: c.Href, Kind: c.Kind})
	}
	return blogDoc{
		ID:           b.ID.String(),
		Title:        b.Title,
		DateDisplay:  b.DateDisplay,
		Category:     b.Category,
		Content:      b.Content,
		Lead:         b.Lead,
		AttachedFile: b.AttachedFile,
		LikeCount:    b.LikeCount,
		CommentCount: b.CommentCount,
		ShareCount:   b.ShareCount,
		Tags:         tags,
		CTA:          cta,
		CreatedAt:    storeTime(b.CreatedAt),
		UpdatedAt:    storeTime(b.UpdatedAt),
	}
}

func (d blogDoc) model() *models.Blog {
	tags := dbtypes.StringList(d.Tags)
	if tags == nil {
		tags = dbtypes.StringList{}
	}
	var cta []models.BlogCTA
	for _, c := range d.CTA {
		cta = append(cta, models.BlogCTA{Label: c.Label, Href: c.Href, Kind: c.Kind})
	}
	return &models.Blog{
		ID:           parseID(d.ID),
		Title:        d.Title,
		DateDisplay:  d.DateDisplay,
		Category:     d.Category,
		Content:      d.Content,
		Lead:         d.Lead,
		AttachedFile: d.AttachedFile,
		LikeCount:    d.LikeCount,
		CommentCount: d.CommentCount,
		ShareCount:   d.ShareCount,
		Tags:         tags,
		CTA:          cta,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}
