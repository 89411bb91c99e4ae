package main

// Book is the catalogued record. Available is stored with the row, but read
// endpoints shadow it with the live answer from the borrow service.
type Book struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Genre     string `json:"genre"`
	Available bool   `json:"available"`
}

type createBookRequest struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Genre  string `json:"genre"`
}

// Pointer fields distinguish "absent" from zero values on partial updates.
type updateBookRequest struct {
	Title     *string `json:"title"`
	Author    *string `json:"author"`
	Genre     *string `json:"genre"`
	Available *bool   `json:"available"`
}
