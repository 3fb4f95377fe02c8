package domain

import (
	"fmt"
	"time"
)

type FoodStatus string

const (
	StatusAvailable FoodStatus = "available"
	StatusClaimed   FoodStatus = "claimed"
	StatusReserved  FoodStatus = "reserved"
	StatusDelivered FoodStatus = "delivered"
	StatusExpired   FoodStatus = "expired"
)

var statuses = []FoodStatus{StatusAvailable, StatusClaimed, StatusReserved, StatusDelivered, StatusExpired}

func (s FoodStatus) Valid() bool {
	for _, x := range statuses {
		if s == x {
			return true
		}
	}
	return false
}

func ParseStatus(s string) (FoodStatus, error) {
	st := FoodStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
	}
	return st, nil
}

type DonationType string

const (
	DonationFree       DonationType = "free"
	DonationDiscounted DonationType = "discounted"
)

func (d DonationType) Valid() bool { return d == DonationFree || d == DonationDiscounted }

// FoodType 分类标签（固定枚举）
type FoodType string

const (
	FoodCookedMeal FoodType = "cooked_meal"
	FoodGroceries  FoodType = "groceries"
	FoodAnimalFeed FoodType = "animal_feed"
	FoodProduce    FoodType = "produce"
	FoodBakery     FoodType = "bakery"
	FoodDairy      FoodType = "dairy"
	FoodOther      FoodType = "other"
)

var foodTypes = []FoodType{FoodCookedMeal, FoodGroceries, FoodAnimalFeed, FoodProduce, FoodBakery, FoodDairy, FoodOther}

func (t FoodType) Valid() bool {
	for _, x := range foodTypes {
		if t == x {
			return true
		}
	}
	return false
}

func FoodTypes() []FoodType { return append([]FoodType(nil), foodTypes...) }

type FoodItem struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Description     string       `json:"description"`
	Quantity        float64      `json:"quantity"`
	Unit            string       `json:"unit"`
	ExpiryDate      time.Time    `json:"expiryDate"`
	DonationType    DonationType `json:"donationType"`
	Price           *float64     `json:"price,omitempty"`
	Type            FoodType     `json:"type"`
	Photos          []string     `json:"photos,omitempty"`
	Status          FoodStatus   `json:"status"`
	DonorID         string       `json:"donorId"`
	RecipientID     string       `json:"recipientId,omitempty"`
	VolunteerID     string       `json:"volunteerId,omitempty"`
	PickupAddress   Address      `json:"pickupAddress"`
	DeliveryAddress *Address     `json:"deliveryAddress,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// EffectiveStatus 过期只在读取时推导，不落库
func (f FoodItem) EffectiveStatus(now time.Time) FoodStatus {
	if f.Status == StatusAvailable && !f.ExpiryDate.After(now) {
		return StatusExpired
	}
	return f.Status
}

func (f FoodItem) Expired(now time.Time) bool { return f.EffectiveStatus(now) == StatusExpired }

// ExpiringSoonWindow 剩余时间不超过该值即视为临期
const ExpiringSoonWindow = 24 * time.Hour

// ExpiringSoon 仅用于展示：0 < 剩余时间 <= 24h，与状态无关
func (f FoodItem) ExpiringSoon(now time.Time) bool {
	left := f.ExpiryDate.Sub(now)
	return left > 0 && left <= ExpiringSoonWindow
}

// NeedsDelivery 已认领、要求配送、尚无志愿者
func (f FoodItem) NeedsDelivery() bool {
	return f.Status == StatusClaimed && f.DeliveryAddress != nil && f.VolunteerID == ""
}

// Clone 深拷贝，store 对外只返回副本
func (f FoodItem) Clone() FoodItem {
	out := f
	if f.Price != nil {
		p := *f.Price
		out.Price = &p
	}
	if f.Photos != nil {
		out.Photos = append([]string(nil), f.Photos...)
	}
	if f.DeliveryAddress != nil {
		a := *f.DeliveryAddress
		out.DeliveryAddress = &a
	}
	return out
}

// NewFoodItem 创建入参：除 id/status/时间戳外的全部字段
type NewFoodItem struct {
	Name          string       `json:"name"         binding:"required,max=120"`
	Description   string       `json:"description"  binding:"max=2000"`
	Quantity      float64      `json:"quantity"     binding:"required,gt=0"`
	Unit          string       `json:"unit"         binding:"required,max=32"`
	ExpiryDate    time.Time    `json:"expiryDate"   binding:"required"`
	DonationType  DonationType `json:"donationType" binding:"required,oneof=free discounted"`
	Price         *float64     `json:"price"        binding:"omitempty,gte=0"`
	Type          FoodType     `json:"type"         binding:"required,oneof=cooked_meal groceries animal_feed produce bakery dairy other"`
	Photos        []string     `json:"photos"`
	DonorID       string       `json:"-"`
	PickupAddress Address      `json:"pickupAddress" binding:"required"`
}

// Normalize 保证 price 当且仅当 discounted 时存在
func (n *NewFoodItem) Normalize() error {
	if !n.DonationType.Valid() {
		return fmt.Errorf("%w: donation type %q", ErrValidation, n.DonationType)
	}
	if !n.Type.Valid() {
		return fmt.Errorf("%w: food type %q", ErrValidation, n.Type)
	}
	if n.DonorID == "" {
		return fmt.Errorf("%w: donor id required", ErrValidation)
	}
	switch n.DonationType {
	case DonationFree:
		n.Price = nil
	case DonationDiscounted:
		if n.Price == nil {
			return fmt.Errorf("%w: price required for discounted donation", ErrValidation)
		}
	}
	return nil
}
