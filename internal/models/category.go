package models

import "encoding/json"

// Subcategory is a child of a Category.
type Subcategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UnmarshalJSON maps "_id" onto ID.
func (s *Subcategory) UnmarshalJSON(data []byte) error {
	var doc struct {
		MongoID string `json:"_id"`
		ID      string `json:"id"`
		Name    string `json:"name"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	s.ID = firstNonEmpty(doc.ID, doc.MongoID)
	s.Name = doc.Name
	return nil
}

// Category groups products; older records carry "title" instead of "name".
type Category struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Subcategories []Subcategory `json:"subcategories"`
}

// UnmarshalJSON maps "_id" and "title" onto the canonical fields.
func (c *Category) UnmarshalJSON(data []byte) error {
	var doc struct {
		MongoID       string        `json:"_id"`
		ID            string        `json:"id"`
		Name          string        `json:"name"`
		Title         string        `json:"title"`
		Subcategories []Subcategory `json:"subcategories"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	c.ID = firstNonEmpty(doc.ID, doc.MongoID)
	c.Name = firstNonEmpty(doc.Name, doc.Title)
	c.Subcategories = doc.Subcategories
	return nil
}

// Subcategory looks up a child by id.
func (c *Category) Subcategory(id string) (Subcategory, bool) {
	for _, sub := range c.Subcategories {
		if sub.ID == id {
			return sub, true
		}
	}
	return Subcategory{}, false
}

// FindCategory returns the category with the given id.
func FindCategory(categories []Category, id string) (*Category, bool) {
	for i := range categories {
		if categories[i].ID == id {
			return &categories[i], true
		}
	}
	return nil, false
}
