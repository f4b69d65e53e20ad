package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/talkincode/productapi/internal/domain"
	"github.com/talkincode/productapi/internal/filter"
	"github.com/talkincode/productapi/internal/webserver"
)

type productPayload struct {
	Name        *string  `json:"name" validate:"required,notblank,max=200"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	Category    *string  `json:"category" validate:"required,notblank,max=100"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
}

type productPatchPayload struct {
	Name        *string  `json:"name" validate:"omitempty,max=200"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Category    *string  `json:"category" validate:"omitempty,max=100"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
}

func (p productPatchPayload) patch() domain.Patch {
	return domain.Patch{
		Name:        trimmed(p.Name),
		Price:       p.Price,
		Category:    trimmed(p.Category),
		Description: p.Description,
	}
}

type resourceHandlers struct {
	res Resource
}

// registerResourceRoutes registers the CRUD endpoints of one collection
func registerResourceRoutes(ws *webserver.WebServer, res Resource) {
	h := &resourceHandlers{res: res}
	base := "/" + res.Plural
	ws.ApiGET(base, h.list)
	ws.ApiGET(base+"/:id", h.get)
	ws.ApiPOST(base, h.create)
	ws.ApiPUT(base+"/:id", h.replace)
	ws.ApiPATCH(base+"/:id", h.patch)
	ws.ApiDELETE(base+"/:id", h.delete)
}

func (h *resourceHandlers) invalidID(c echo.Context, err error) error {
	return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+h.res.Singular+" ID", err.Error())
}

func (h *resourceHandlers) notFound(c echo.Context) error {
	return fail(c, http.StatusNotFound, "NOT_FOUND", h.res.Title+" not found", nil)
}

func (h *resourceHandlers) list(c echo.Context) error {
	spec, err := filter.Build(c.QueryParams())
	if err != nil {
		return failInput(c, err)
	}

	docs, err := webserver.GetStore(c).Find(c.Request().Context(), spec)
	if err != nil {
		return failStorage(c, err)
	}

	var items interface{}
	if len(spec.Projection) > 0 {
		views := make([]map[string]interface{}, 0, len(docs))
		for _, d := range docs {
			views = append(views, d.Project(spec.Projection))
		}
		items = views
	} else {
		if docs == nil {
			docs = []domain.Product{}
		}
		items = docs
	}
	return ok(c, map[string]interface{}{
		"count":      len(docs),
		h.res.Plural: items,
	})
}

func (h *resourceHandlers) get(c echo.Context) error {
	id, err := domain.ParseID(c.Param("id"))
	if err != nil {
		return h.invalidID(c, err)
	}

	doc, err := webserver.GetStore(c).FindOne(c.Request().Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		return h.notFound(c)
	} else if err != nil {
		return failStorage(c, err)
	}
	return ok(c, doc)
}

// decodeProduct reads a complete document body for create and replace.
func decodeProduct(c echo.Context) (domain.Product, error) {
	body, err := readBody(c)
	if err != nil {
		return domain.Product{}, err
	}
	var payload productPayload
	if err := decodeBody(body, &payload); err != nil {
		return domain.Product{}, err
	}
	if err := c.Validate(&payload); err != nil {
		return domain.Product{}, err
	}

	var description string
	if payload.Description != nil {
		description = *payload.Description
	}
	return domain.NewProduct(*trimmed(payload.Name), *payload.Price, *trimmed(payload.Category), description), nil
}

func (h *resourceHandlers) create(c echo.Context) error {
	doc, err := decodeProduct(c)
	if err != nil {
		return failBody(c, err)
	}

	id, err := webserver.GetStore(c).InsertOne(c.Request().Context(), doc)
	if err != nil {
		return failStorage(c, err)
	}
	doc.ID = id
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message":      h.res.Title + " created successfully",
		"id":           id,
		h.res.Singular: doc,
	})
}

func (h *resourceHandlers) replace(c echo.Context) error {
	id, err := domain.ParseID(c.Param("id"))
	if err != nil {
		return h.invalidID(c, err)
	}
	doc, err := decodeProduct(c)
	if err != nil {
		return failBody(c, err)
	}

	patch := domain.Patch{
		Name:        &doc.Name,
		Price:       &doc.Price,
		Category:    &doc.Category,
		Description: &doc.Description,
	}
	matched, err := webserver.GetStore(c).UpdateOne(c.Request().Context(), id, patch)
	if err != nil {
		return failStorage(c, err)
	}
	if matched == 0 {
		return h.notFound(c)
	}
	return ok(c, map[string]interface{}{
		"message": h.res.Title + " updated successfully",
		"id":      id,
	})
}

func (h *resourceHandlers) patch(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return failBody(c, err)
	}
	var payload productPatchPayload
	if err := decodeBody(body, &payload); err != nil {
		return failBody(c, err)
	}
	patch := payload.patch()
	if patch.IsEmpty() {
		return fail(c, http.StatusBadRequest, "EMPTY_UPDATE", "No fields to update", nil)
	}

	id, err := domain.ParseID(c.Param("id"))
	if err != nil {
		return h.invalidID(c, err)
	}
	if err := c.Validate(&payload); err != nil {
		return failBody(c, err)
	}
	if patch.Name != nil && *patch.Name == "" {
		return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Field 'name' must not be empty", nil)
	}
	if patch.Category != nil && *patch.Category == "" {
		return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Field 'category' must not be empty", nil)
	}

	matched, err := webserver.GetStore(c).UpdateOne(c.Request().Context(), id, patch)
	if err != nil {
		return failStorage(c, err)
	}
	if matched == 0 {
		return h.notFound(c)
	}
	return ok(c, map[string]interface{}{
		"message": h.res.Title + " updated successfully",
		"id":      id,
	})
}

func (h *resourceHandlers) delete(c echo.Context) error {
	id, err := domain.ParseID(c.Param("id"))
	if err != nil {
		return h.invalidID(c, err)
	}

	deleted, err := webserver.GetStore(c).DeleteOne(c.Request().Context(), id)
	if err != nil {
		return failStorage(c, err)
	}
	if deleted == 0 {
		return h.notFound(c)
	}
	return c.NoContent(http.StatusNoContent)
}
