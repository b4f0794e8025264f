package dto

import (
	"dineease/internal/domains/restaurant/model"
	"dineease/shared"
	gDto "dineease/shared/dto"
)

type RestaurantResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Cuisine         string `json:"cuisine"`
	PriceRange      string `json:"price_range"`
	SeatingCapacity int    `json:"seating_capacity"`
	OwnerName       string `json:"owner_name"`
	Active          bool   `json:"active"`
	gDto.Metadata
}

func (r *RestaurantResponse) FromModel(model model.Restaurant) {
	r.ID = model.ID
	r.Name = model.Name
	r.Cuisine = model.Cuisine
	r.PriceRange = model.PriceRange
	r.SeatingCapacity = model.SeatingCapacity
	r.OwnerName = model.OwnerName
	r.Active = model.Active
	r.Metadata.FromModel(model.Metadata)
}

type GetRestaurantsResponse struct {
	Restaurants []RestaurantResponse `json:"restaurants"`
	TotalPage   int                  `json:"total_page"`
	TotalData   int                  `json:"total_data"`
}

func (r *GetRestaurantsResponse) FromModels(models []model.Restaurant, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Restaurants = make([]RestaurantResponse, len(models))
	for i, mod := range models {
		r.Restaurants[i].FromModel(mod)
	}
}
