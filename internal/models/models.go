package models

type User struct {
	ID    uint   `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name  string `gorm:"size:255;not null"         json:"name"`
	Email string `gorm:"size:320"                  json:"email"`
	Phone string `gorm:"size:15"                   json:"phone"`
}

type CustomerAccount struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"      json:"id"`
	Username string `gorm:"size:255;uniqueIndex;not null" json:"username"`
	Password string `gorm:"size:255;not null"             json:"password"`
	UserID   uint   `gorm:"uniqueIndex;not null"          json:"user_id"`
	User     *User  `gorm:"constraint:OnDelete:CASCADE"   json:"-"`
}

type Product struct {
	ID       uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string  `gorm:"size:255;not null"        json:"name"`
	Price    float64 `gorm:"not null"                 json:"price"`
	Quantity int     `gorm:"not null"                 json:"quantity"`
}

type Order struct {
	ID            uint           `gorm:"primaryKey;autoIncrement"                  json:"id"`
	Date          string         `gorm:"size:255;not null"                         json:"date"`
	UserID        *uint          `gorm:"index"                                     json:"user_id"`
	User          *User          `gorm:"constraint:OnDelete:SET NULL"              json:"-"`
	TotalPrice    float64        `gorm:"not null"                                  json:"total_price"`
	OrderProducts []OrderProduct `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order_products"`
}

// OrderProduct is the join row between an order and a product.
type OrderProduct struct {
	OrderID   uint     `gorm:"primaryKey;autoIncrement:false" json:"order_id"`
	ProductID uint     `gorm:"primaryKey;autoIncrement:false" json:"product_id"`
	Product   *Product `gorm:"constraint:OnDelete:CASCADE"    json:"-"`
	Quantity  int      `gorm:"not null;check:quantity>0"      json:"quantity"`
}

func (OrderProduct) TableName() string {
	return "order_products"
}

// All lists every model in dependency order for AutoMigrate.
func All() []any {
	return []any{&User{}, &CustomerAccount{}, &Product{}, &Order{}, &OrderProduct{}}
}
