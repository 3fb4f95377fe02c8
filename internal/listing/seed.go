package listing

import (
	"time"

	"foodshare/internal/domain"
)

func ptr[T any](v T) *T { return &v }

// Seed 固定的三条演示数据，每次启动重置
func Seed(now time.Time) []domain.FoodItem {
	day := 24 * time.Hour
	return []domain.FoodItem{
		{
			ID:           "1",
			Name:         "Pasta with Tomato Sauce",
			Description:  "Freshly made pasta with homemade tomato sauce. Serving for 10 people.",
			Quantity:     10,
			Unit:         "portions",
			ExpiryDate:   now.Add(day),
			DonationType: domain.DonationFree,
			Type:         domain.FoodCookedMeal,
			Photos:       []string{"https://images.unsplash.com/photo-1603729362753-f8162ac6c3df"},
			Status:       domain.StatusAvailable,
			DonorID:      "1",
			PickupAddress: domain.Address{
				Street: "123 Main St", City: "Anytown", State: "CA", ZipCode: "12345", Country: "USA",
				Latitude: ptr(34.0522), Longitude: ptr(-118.2437),
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:           "2",
			Name:         "Fresh Vegetables Assortment",
			Description:  "Fresh vegetables including carrots, broccoli, and bell peppers.",
			Quantity:     5,
			Unit:         "kg",
			ExpiryDate:   now.Add(3 * day),
			DonationType: domain.DonationFree,
			Type:         domain.FoodProduce,
			Photos:       []string{"https://images.unsplash.com/photo-1566385101042-1a0aa0c1268c"},
			Status:       domain.StatusAvailable,
			DonorID:      "2",
			PickupAddress: domain.Address{
				Street: "456 Oak Ave", City: "Somewhere", State: "NY", ZipCode: "67890", Country: "USA",
				Latitude: ptr(40.7128), Longitude: ptr(-74.006),
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:           "3",
			Name:         "Bakery Items",
			Description:  "Assorted bakery items including bread, muffins, and pastries.",
			Quantity:     20,
			Unit:         "pieces",
			ExpiryDate:   now.Add(day),
			DonationType: domain.DonationDiscounted,
			Price:        ptr(10.0),
			Type:         domain.FoodBakery,
			Photos:       []string{"https://images.unsplash.com/photo-1608198093002-ad4e005484ec"},
			Status:       domain.StatusAvailable,
			DonorID:      "3",
			PickupAddress: domain.Address{
				Street: "789 Maple Rd", City: "Elsewhere", State: "TX", ZipCode: "54321", Country: "USA",
				Latitude: ptr(29.7604), Longitude: ptr(-95.3698),
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}
