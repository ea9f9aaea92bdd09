package layout

// FlashMessage is a one-shot notice shown at the top of the next page
type FlashMessage struct {
	Type    string // success, error or info
	Message string
}

// PageData holds what every page passes to the base layout
type PageData struct {
	Title string
	Flash *FlashMessage
}
