package handlers

import (
	"github.com/gofiber/fiber/v2"

	"pixelkeys/internal/backend"
	applog "pixelkeys/internal/log"
	"pixelkeys/internal/session"
	"pixelkeys/internal/validate"
)

// ExploreHandler renders the filtered, sorted, two-level-paginated listing.
type ExploreHandler struct {
	API      *backend.Client
	Sessions *session.Registry
}

// Browse handles GET / and GET /games. Link-driven controls (search box,
// sort select, server page, client page) arrive as query parameters.
func (h *ExploreHandler) Browse(c *fiber.Ctx) error {
	sess := visitor(c, h.Sessions)
	ex := sess.Explorer

	if raw := c.Query("q"); raw != "" || c.Query("qsubmit") != "" {
		q, ok := validate.Q(raw)
		if !ok {
			applog.Security(c, "validation.fail", map[string]any{"field": "q"})
			return c.Status(fiber.StatusBadRequest).Render("notfound", fiber.Map{"Message": "Enter a valid search term"})
		}
		_ = ex.Apply("searchTerm", q)
	}
	if s := c.Query("sort"); s != "" {
		if err := ex.Apply("sort", s); err != nil {
			applog.Security(c, "validation.fail", map[string]any{"field": "sort"})
			return c.Status(fiber.StatusBadRequest).Render("notfound", fiber.Map{"Message": "Invalid sort"})
		}
	}
	if p := c.Query("page"); p != "" {
		_ = ex.Apply("page", c.Query("page"))
	}

	ex.Sync(c.UserContext())

	// The view cursor only re-slices held data; it never refetches, so it is
	// applied after Sync (which resets it whenever the batch changed).
	if vp := c.Query("view"); vp != "" {
		ex.SetClientPage(validate.Page(vp))
	}

	cats, err := h.API.ListCategories(c.UserContext())
	if err != nil {
		applog.Error(c, "explore.categories", err, nil)
		cats = nil // the grid still renders without the sidebar
	}

	var fetchErr string
	if err := ex.Err(); err != nil {
		applog.Error(c, "explore.fetch", err, nil)
		fetchErr = "Could not load games. Showing the last results."
	}

	st := ex.State()
	page := ex.ClientPage()
	return render(c, "explore", fiber.Map{
		"Games":      ex.Visible(),
		"Total":      ex.Total(),
		"Page":       page,
		"Pages":      ex.ClientPages(),
		"Prev":       page - 1,
		"Next":       page + 1,
		"Query":      st,
		"Categories": cats,
		// The skeleton only shows for user-driven refetches; a fresh page
		// load renders whatever the first fetch returned.
		"Loading": ex.Loading() && st.FilterUpdated,
		"Err":     fetchErr,
	})
}

// Filter handles POST /games/filter: checkbox toggles commit immediately,
// price bounds go through the debouncer.
func (h *ExploreHandler) Filter(c *fiber.Ctx) error {
	sess := visitor(c, h.Sessions)
	ex := sess.Explorer

	if id := c.FormValue("categoryId"); id != "" {
		if _, ok := validate.ID(id); !ok {
			applog.Security(c, "validation.fail", map[string]any{"field": "categoryId"})
			return c.Status(fiber.StatusBadRequest).SendString("invalid category")
		}
		ex.ToggleCategory(id)
	}
	if rs := c.FormValue("rating"); rs != "" {
		r, ok := validate.Rating(rs)
		if !ok {
			applog.Security(c, "validation.fail", map[string]any{"field": "rating"})
			return c.Status(fiber.StatusBadRequest).SendString("invalid rating")
		}
		ex.ToggleRating(r)
	}

	min, okMin := validate.Price(c.FormValue("minPrice"))
	max, okMax := validate.Price(c.FormValue("maxPrice"))
	if !okMin || !okMax {
		applog.Security(c, "validation.fail", map[string]any{"field": "price"})
		return c.Status(fiber.StatusBadRequest).SendString("invalid price bound")
	}
	if c.FormValue("priceEdited") != "" {
		ex.EditPriceRange(min, max)
	}
	// A full form submit commits buffered bounds right away.
	if c.FormValue("apply") != "" {
		ex.FlushPriceRange()
	}

	return c.Redirect("/games")
}
