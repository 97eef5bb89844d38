package transport

// Request bodies use pointers so a missing field is distinguishable from a
// zero value; `validate` tags are enforced by the schema package.

type UserRequest struct {
	Name  *string `json:"name"  validate:"required,max=255"`
	Email *string `json:"email" validate:"required,max=320"`
	Phone *string `json:"phone" validate:"required,max=15"`
}

type CreateAccountRequest struct {
	Username *string `json:"username" validate:"required,min=1,max=255"`
	Password *string `json:"password" validate:"required,max=255"`
	UserID   *uint   `json:"user_id"  validate:"required"`
}

type UpdateAccountRequest struct {
	Username *string `json:"username" validate:"required,min=1,max=255"`
	Password *string `json:"password" validate:"required,max=255"`
}

type ProductRequest struct {
	Name     *string  `json:"name"     validate:"required,max=255"`
	Price    *float64 `json:"price"    validate:"required,gte=0"`
	Quantity *int     `json:"quantity" validate:"required,gte=0"`
}

type StockRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0"`
}

type OrderItem struct {
	ProductID *uint `json:"product_id" validate:"required"`
	Quantity  *int  `json:"quantity"   validate:"required,gte=1"`
}

type CreateOrderRequest struct {
	Date   *string     `json:"date"    validate:"required,max=255"`
	UserID *uint       `json:"user_id" validate:"required"`
	Items  []OrderItem `json:"items"   validate:"required,dive"`
}

type CreateOrderResponse struct {
	Message string `json:"message"`
	OrderID uint   `json:"order_id"`
}
