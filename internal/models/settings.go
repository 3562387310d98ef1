package models

// Settings are the store-wide knobs kept in the settings table.
type Settings struct {
	PricePerRP        float64
	PixKey            string
	MinFriendshipDays int
	PanelTitle        string
	PanelDescription  string
}
