package scraper

// DefaultBaseURL is the root of the scraped site.
const DefaultBaseURL = "https://www.eof.gr"

// DefaultCategories is the statically configured category tree scraped
// when the config file does not override it.
func DefaultCategories() []CategoryConfig {
	return []CategoryConfig{
		{
			Slug: "farmaka",
			Name: "Φάρμακα",
			URL:  "/category/farmaka/",
			Type: "farmaka",
			Subcategories: []SubcategoryConfig{
				{Slug: "adeia-dynatotitas-paragogis-diakinisis-farmaka", Name: "Άδεια δυνατότητας παραγωγής/διακίνησης"},
				{Slug: "anakliseis-farmakon-anthropinis-xrisis-farmaka", Name: "Ανακλήσεις φαρμάκων ανθρώπινης χρήσης"},
				{Slug: "anakoinoseis-timologisis-farmakon-farnaka", Name: "Ανακοινώσεις τιμολόγησης φαρμάκων"},
				{Slug: "anakoinoseis-farmaka", Name: "Ανακοινώσεις φαρμάκων"},
				{Slug: "egkyklioi-drastikon-ousion-farmaka", Name: "Εγκύκλιοι δραστικών ουσιών"},
				{Slug: "klinikes-meletes", Name: "Κλινικές μελέτες"},
				{Slug: "parigoritiki-xrisi-farmaka", Name: "Παρηγορητική χρήση"},
				{Slug: "farmakoepagripnisi-farmaka", Name: "Φαρμακοεπαγρύπνηση"},
			},
		},
	}
}
