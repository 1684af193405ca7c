package domain

// itemShape tags which persisted form an Item was read from.
type itemShape uint8

const (
	shapeNamed itemShape = iota
	shapePlain
)

// Item is either a legacy bare name or a named record with an optional image.
// The zero value is an unnamed record.
type Item struct {
	shape itemShape
	name  string
	image string
}

// PlainItem returns an item in the legacy bare-name shape.
func PlainItem(name string) Item {
	return Item{shape: shapePlain, name: name}
}

// NamedItem returns an item in the record shape. image may be empty.
func NamedItem(name, image string) Item {
	return Item{shape: shapeNamed, name: name, image: image}
}

func (i Item) Name() string   { return i.name }
func (i Item) Image() string  { return i.image }
func (i Item) HasImage() bool { return i.image != "" }

// Legacy reports whether the item was read from a bare string.
func (i Item) Legacy() bool { return i.shape == shapePlain }

type StorageLocation struct {
	Name  string
	Items []Item
}

type Area struct {
	Name     string
	Storages []*StorageLocation
}

// Row is one flattened line of the inventory table.
type Row struct {
	Area    string
	Storage string
	Item    string
	Image   string
}

// Selection identifies a row a user marked for deletion.
type Selection struct {
	Area    string
	Storage string
	Item    string
}
