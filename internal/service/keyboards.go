package service

import (
	"encoding/json"

	"rotor-shift-bot/internal/models"
	"rotor-shift-bot/internal/vk"
)

// pageSize is how many route/vehicle buttons fit on one menu page.
const pageSize = 6

// Action tags round-tripped through button payloads.
const (
	actionCancel       = "cancel"
	actionRoutesPage   = "routes_page"
	actionVehiclesPage = "vehicles_page"
	actionShift        = "shift"
	actionRoute        = "route"
	actionVehicle      = "vehicle"
	actionStatus       = "status"
)

// action is the button payload descriptor. The tag in "a" decides which of
// the remaining fields are meaningful.
type action struct {
	A     string `json:"a"`
	ID    int    `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Board string `json:"board,omitempty"`
	P     int    `json:"p,omitempty"`
	V     string `json:"v,omitempty"`
}

func encodeAction(a action) string {
	b, _ := json.Marshal(a)
	return string(b)
}

// statusKeyboard is the persistent status menu.
func statusKeyboard() *vk.Keyboard {
	kb := vk.NewKeyboard(false)
	kb.AddRow(
		vk.TextButton("Выход", vk.ColorPositive, encodeAction(action{A: actionShift})),
		vk.TextButton("Обед", vk.ColorPrimary, encodeAction(action{A: actionStatus, V: models.StatusLunch})),
	)
	kb.AddRow(
		vk.TextButton("Вылет", vk.ColorPrimary, encodeAction(action{A: actionStatus, V: models.StatusDeparted})),
		vk.TextButton("Сход", vk.ColorNegative, encodeAction(action{A: actionStatus, V: models.StatusDismissed})),
	)
	return kb
}

// routesKeyboard is one page of the route selection menu. The page is clamped
// to the valid range.
func routesKeyboard(routes []models.RouteRef, page int) *vk.Keyboard {
	pages := pageCount(len(routes))
	page = clampPage(page, pages)
	start := (page - 1) * pageSize
	end := start + pageSize
	if end > len(routes) {
		end = len(routes)
	}

	kb := vk.NewKeyboard(true)
	for _, r := range routes[start:end] {
		kb.AddRow(vk.TextButton(r.Name, vk.ColorPrimary,
			encodeAction(action{A: actionRoute, ID: r.ID, Name: r.Name})))
	}

	if nav := pagerRow(actionRoutesPage, page, pages); len(nav) > 0 {
		kb.AddRow(nav...)
	}

	kb.AddRow(vk.TextButton("Отмена", vk.ColorSecondary, encodeAction(action{A: actionCancel})))
	return kb
}

// vehiclesKeyboard is one page of the vehicle selection menu.
func vehiclesKeyboard(vehicles []models.VehicleRef, page int) *vk.Keyboard {
	pages := pageCount(len(vehicles))
	page = clampPage(page, pages)
	start := (page - 1) * pageSize
	end := start + pageSize
	if end > len(vehicles) {
		end = len(vehicles)
	}

	kb := vk.NewKeyboard(true)
	for _, v := range vehicles[start:end] {
		kb.AddRow(vk.TextButton(v.BoardNumber, vk.ColorPrimary,
			encodeAction(action{A: actionVehicle, ID: v.ID, Board: v.BoardNumber})))
	}

	if nav := pagerRow(actionVehiclesPage, page, pages); len(nav) > 0 {
		kb.AddRow(nav...)
	}

	kb.AddRow(vk.TextButton("Отмена", vk.ColorSecondary, encodeAction(action{A: actionCancel})))
	return kb
}

func pagerRow(pageAction string, page, pages int) []vk.Button {
	var nav []vk.Button
	if page > 1 {
		nav = append(nav, vk.TextButton("⬅️ Назад", vk.ColorSecondary,
			encodeAction(action{A: pageAction, P: page - 1})))
	}
	if page < pages {
		nav = append(nav, vk.TextButton("Далее ➡️", vk.ColorSecondary,
			encodeAction(action{A: pageAction, P: page + 1})))
	}
	return nav
}

func pageCount(total int) int {
	pages := (total + pageSize - 1) / pageSize
	if pages < 1 {
		pages = 1
	}
	return pages
}

func clampPage(page, pages int) int {
	if page < 1 {
		return 1
	}
	if page > pages {
		return pages
	}
	return page
}
