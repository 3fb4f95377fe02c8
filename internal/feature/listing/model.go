package listing

import (
	"encoding/json"
	"time"

	"foodshare/internal/domain"
)

// AddressCols 地址按列展开，通过 embeddedPrefix 区分 pickup / delivery
type AddressCols struct {
	Street    string `gorm:"size:255"`
	City      string `gorm:"size:128"`
	State     string `gorm:"size:64"`
	ZipCode   string `gorm:"size:16"`
	Country   string `gorm:"size:64"`
	Latitude  *float64
	Longitude *float64
}

type ListingModel struct {
	ID           string `gorm:"primaryKey;type:varchar(32)"`
	Seq          int64  `gorm:"index;not null"` // 插入顺序，由 repo 分配
	Name         string `gorm:"size:120;not null"`
	Description  string `gorm:"type:text"`
	Quantity     float64
	Unit         string    `gorm:"size:32"`
	ExpiryDate   time.Time `gorm:"index"`
	DonationType string    `gorm:"size:16;not null"`
	Price        *float64
	Type         string `gorm:"size:32;index"`
	Photos       string `gorm:"type:text"` // JSON 数组
	Status       string `gorm:"size:16;index;not null"`
	DonorID      string `gorm:"size:32;index;not null"`
	RecipientID  string `gorm:"size:32;index"`
	VolunteerID  string `gorm:"size:32;index"`

	Pickup      AddressCols `gorm:"embedded;embeddedPrefix:pickup_"`
	HasDelivery bool
	Delivery    AddressCols `gorm:"embedded;embeddedPrefix:delivery_"`

	// 时间戳由 listing.Store 控制，关闭 gorm 自动填充
	CreatedAt time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false"`
}

func (ListingModel) TableName() string { return "listings" }

func colsFrom(a domain.Address) AddressCols {
	return AddressCols{
		Street: a.Street, City: a.City, State: a.State, ZipCode: a.ZipCode, Country: a.Country,
		Latitude: a.Latitude, Longitude: a.Longitude,
	}
}

func (c AddressCols) toDomain() domain.Address {
	return domain.Address{
		Street: c.Street, City: c.City, State: c.State, ZipCode: c.ZipCode, Country: c.Country,
		Latitude: c.Latitude, Longitude: c.Longitude,
	}
}

func FromDomain(f *domain.FoodItem) (ListingModel, error) {
	photos := "[]"
	if len(f.Photos) > 0 {
		b, err := json.Marshal(f.Photos)
		if err != nil {
			return ListingModel{}, err
		}
		photos = string(b)
	}
	m := ListingModel{
		ID:           f.ID,
		Name:         f.Name,
		Description:  f.Description,
		Quantity:     f.Quantity,
		Unit:         f.Unit,
		ExpiryDate:   f.ExpiryDate,
		DonationType: string(f.DonationType),
		Price:        f.Price,
		Type:         string(f.Type),
		Photos:       photos,
		Status:       string(f.Status),
		DonorID:      f.DonorID,
		RecipientID:  f.RecipientID,
		VolunteerID:  f.VolunteerID,
		Pickup:       colsFrom(f.PickupAddress),
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
	if f.DeliveryAddress != nil {
		m.HasDelivery = true
		m.Delivery = colsFrom(*f.DeliveryAddress)
	}
	return m, nil
}

func (m ListingModel) ToDomain() (domain.FoodItem, error) {
	var photos []string
	if m.Photos != "" && m.Photos != "[]" {
		if err := json.Unmarshal([]byte(m.Photos), &photos); err != nil {
			return domain.FoodItem{}, err
		}
	}
	f := domain.FoodItem{
		ID:            m.ID,
		Name:          m.Name,
		Description:   m.Description,
		Quantity:      m.Quantity,
		Unit:          m.Unit,
		ExpiryDate:    m.ExpiryDate,
		DonationType:  domain.DonationType(m.DonationType),
		Price:         m.Price,
		Type:          domain.FoodType(m.Type),
		Photos:        photos,
		Status:        domain.FoodStatus(m.Status),
		DonorID:       m.DonorID,
		RecipientID:   m.RecipientID,
		VolunteerID:   m.VolunteerID,
		PickupAddress: m.Pickup.toDomain(),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	if m.HasDelivery {
		a := m.Delivery.toDomain()
		f.DeliveryAddress = &a
	}
	return f, nil
}
