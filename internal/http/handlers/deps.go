package handlers

import (
	"github.com/jmoiron/sqlx"

	"pixelkeys/internal/backend"
	"pixelkeys/internal/session"
)

type Deps struct {
	ExploreHandler *ExploreHandler
	ProductHandler *ProductHandler
	CartHandler    *CartHandler
	OrderHandler   *OrderHandler
	AuthHandler    *AuthHandler
	ReviewHandler  *ReviewHandler
	AdminHandler   *AdminHandler

	Registry *session.Registry
}

func NewDeps(db *sqlx.DB, api *backend.Client) *Deps {
	reg := session.NewRegistry(db, api)
	return &Deps{
		ExploreHandler: &ExploreHandler{API: api, Sessions: reg},
		ProductHandler: &ProductHandler{API: api},
		CartHandler:    &CartHandler{API: api, Sessions: reg},
		OrderHandler:   &OrderHandler{API: api, Sessions: reg},
		AuthHandler:    &AuthHandler{API: api, Sessions: reg},
		ReviewHandler:  &ReviewHandler{API: api, Sessions: reg},
		AdminHandler:   &AdminHandler{API: api, Sessions: reg},
		Registry:       reg,
	}
}
