package order

import (
	"time"

	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/bazaar/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Cart is the aggregate a customer assembles before checkout. It may belong
// to a registered user or an anonymous session. Carts are destroyed on
// successful checkout or reclaimed by the expiry sweep along with their
// reservations.
type Cart struct {
	shared.BaseAggregateRoot
	UserID       *uuid.UUID `gorm:"type:uuid;index"`
	SessionToken string     `gorm:"type:varchar(100);index"`
	CouponCode   *string    `gorm:"type:varchar(50)"`
	ExpiresAt    time.Time  `gorm:"not null;index"`
	Items        []CartItem `gorm:"foreignKey:CartID"`
}

// TableName returns the table name for GORM
func (Cart) TableName() string {
	return "carts"
}

// CartItem is one line in a cart. UnitPrice is a snapshot taken at
// add-to-cart time; the linked reservation holds the stock claim.
type CartItem struct {
	shared.BaseEntity
	CartID        uuid.UUID         `gorm:"type:uuid;not null;index"`
	VariantID     uuid.UUID         `gorm:"type:uuid;not null;index"`
	VendorID      uuid.UUID         `gorm:"type:uuid;not null;index"`
	ProductName   string            `gorm:"type:varchar(200);not null"`
	VariantName   string            `gorm:"type:varchar(200)"`
	Quantity      int64             `gorm:"not null"`
	UnitPrice     valueobject.Money `gorm:"type:bigint;not null"`
	ReservationID *uuid.UUID        `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (CartItem) TableName() string {
	return "cart_items"
}

// Subtotal returns quantity * unit price for this line
func (i *CartItem) Subtotal() valueobject.Money {
	return i.UnitPrice.MultiplyByInt(i.Quantity)
}

// NewCart creates a cart for a user or an anonymous session
func NewCart(userID *uuid.UUID, sessionToken string, ttl time.Duration) (*Cart, error) {
	if userID == nil && sessionToken == "" {
		return nil, shared.NewDomainError("INVALID_OWNER", "Cart requires a user or a session token")
	}
	return &Cart{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		SessionToken:      sessionToken,
		ExpiresAt:         time.Now().UTC().Add(ttl),
		Items:             make([]CartItem, 0),
	}, nil
}

// AddItem adds a line to the cart. Adding the same variant twice merges
// quantities; the caller is responsible for extending the stock reservation.
func (c *Cart) AddItem(variantID, vendorID uuid.UUID, productName, variantName string, qty int64, unitPrice valueobject.Money) (*CartItem, error) {
	if qty < 1 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	for idx := range c.Items {
		if c.Items[idx].VariantID == variantID {
			c.Items[idx].Quantity += qty
			c.Items[idx].UpdatedAt = time.Now().UTC()
			c.UpdatedAt = time.Now().UTC()
			return &c.Items[idx], nil
		}
	}

	item := CartItem{
		BaseEntity:  shared.NewBaseEntity(),
		CartID:      c.ID,
		VariantID:   variantID,
		VendorID:    vendorID,
		ProductName: productName,
		VariantName: variantName,
		Quantity:    qty,
		UnitPrice:   unitPrice,
	}
	c.Items = append(c.Items, item)
	c.UpdatedAt = time.Now().UTC()
	return &c.Items[len(c.Items)-1], nil
}

// UpdateItemQuantity changes a line's quantity
func (c *Cart) UpdateItemQuantity(itemID uuid.UUID, qty int64) (*CartItem, error) {
	if qty < 1 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	for idx := range c.Items {
		if c.Items[idx].ID == itemID {
			c.Items[idx].Quantity = qty
			c.Items[idx].UpdatedAt = time.Now().UTC()
			c.UpdatedAt = time.Now().UTC()
			return &c.Items[idx], nil
		}
	}
	return nil, shared.NewDomainError("ITEM_NOT_FOUND", "Cart item not found")
}

// RemoveItem removes a line and returns it so the caller can release its reservation
func (c *Cart) RemoveItem(itemID uuid.UUID) (*CartItem, error) {
	for idx, item := range c.Items {
		if item.ID == itemID {
			removed := item
			c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
			c.UpdatedAt = time.Now().UTC()
			return &removed, nil
		}
	}
	return nil, shared.NewDomainError("ITEM_NOT_FOUND", "Cart item not found")
}

// ApplyCoupon attaches a coupon code; validation happens at checkout against
// the coupon's rules
func (c *Cart) ApplyCoupon(code string) {
	c.CouponCode = &code
	c.UpdatedAt = time.Now().UTC()
}

// RemoveCoupon detaches the coupon code
func (c *Cart) RemoveCoupon() {
	c.CouponCode = nil
	c.UpdatedAt = time.Now().UTC()
}

// Subtotal returns the sum of all line subtotals
func (c *Cart) Subtotal() valueobject.Money {
	total := valueobject.Zero()
	for i := range c.Items {
		total = total.Add(c.Items[i].Subtotal())
	}
	return total
}

// IsEmpty returns true if the cart has no items
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// IsExpired returns true if the cart has passed its TTL
func (c *Cart) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

// Touch extends the cart lifetime, used when the customer is still active
func (c *Cart) Touch(ttl time.Duration) {
	c.ExpiresAt = time.Now().UTC().Add(ttl)
	c.UpdatedAt = time.Now().UTC()
}

// GetItem returns a cart item by ID
func (c *Cart) GetItem(itemID uuid.UUID) *CartItem {
	for idx := range c.Items {
		if c.Items[idx].ID == itemID {
			return &c.Items[idx]
		}
	}
	return nil
}
