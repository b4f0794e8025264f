package model

import "dineease/shared/model"

const (
	TableName  = "restaurants"
	EntityName = "restaurant"

	FieldID              = "id"
	FieldName            = "name"
	FieldCuisine         = "cuisine"
	FieldPriceRange      = "price_range"
	FieldSeatingCapacity = "seating_capacity"
	FieldActive          = "active"
)

type Restaurant struct {
	ID              string `db:"id"`
	Name            string `db:"name"`
	Cuisine         string `db:"cuisine"`
	PriceRange      string `db:"price_range"`
	SeatingCapacity int    `db:"seating_capacity"`
	OwnerName       string `db:"owner_name"`
	Active          bool   `db:"active"`
	model.Metadata
}
