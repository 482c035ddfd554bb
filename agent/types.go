package main

import (
	"fmt"

	"github.com/imkonsowa/restaurants-linebot/models"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

type ProcessingResult struct {
	Err error
	Msg WebSocketsMessage
}

type WebSocketsMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type CreateRestaurantsRequest struct {
	Restaurants []models.Entry `json:"restaurants"`
}

func (c *CreateRestaurantsRequest) Validate() error {
	if len(c.Restaurants) == 0 {
		return fmt.Errorf("no restaurants provided")
	}

	for i, r := range c.Restaurants {
		if r.Title == "" || r.URL == "" {
			return fmt.Errorf("restaurant %d: title and url are required", i)
		}
		if md := r.Metadata; md.Rating != nil && (*md.Rating < 0 || *md.Rating > 5) {
			return fmt.Errorf("restaurant %d: rating must be between 0 and 5", i)
		}
	}

	return nil
}

func (c *CreateRestaurantsRequest) ToModels() []models.Restaurant {
	restaurants := make([]models.Restaurant, len(c.Restaurants))
	for i := range c.Restaurants {
		restaurants[i] = c.Restaurants[i].ToRestaurant()
	}

	return restaurants
}
