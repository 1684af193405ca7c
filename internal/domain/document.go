package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// itemRecord is the persisted record shape of an item.
type itemRecord struct {
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// MarshalJSON always writes the record shape, dropping image when absent.
func (i Item) MarshalJSON() ([]byte, error) {
	return json.Marshal(itemRecord{Name: i.name, Image: i.image})
}

// UnmarshalJSON accepts both a bare string (legacy) and a record.
func (i *Item) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errors.New("empty item")
	}
	switch data[0] {
	case '"':
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*i = PlainItem(name)
		return nil
	case '{':
		var rec struct {
			Name  *string `json:"name"`
			Image string  `json:"image"`
		}
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		if rec.Name == nil {
			return errors.New("item record has no name")
		}
		*i = NamedItem(*rec.Name, rec.Image)
		return nil
	default:
		return fmt.Errorf("item must be a string or an object, got %s", data)
	}
}

// MarshalJSON writes areas and storage locations as JSON objects in
// insertion order.
func (inv *Inventory) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for ai, a := range inv.Areas {
		if ai > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, a.Name); err != nil {
			return nil, err
		}
		buf.WriteByte('{')
		for si, s := range a.Storages {
			if si > 0 {
				buf.WriteByte(',')
			}
			if err := writeKey(&buf, s.Name); err != nil {
				return nil, err
			}
			items := s.Items
			if items == nil {
				items = []Item{}
			}
			b, err := json.Marshal(items)
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeKey(buf *bytes.Buffer, key string) error {
	b, err := json.Marshal(key)
	if err != nil {
		return err
	}
	buf.Write(b)
	buf.WriteByte(':')
	return nil
}

// UnmarshalJSON reads the document token by token so that object key order
// becomes insertion order. A repeated key replaces the earlier value in place.
func (inv *Inventory) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		inv.Areas = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return fmt.Errorf("document: %w", err)
	}
	var areas []*Area
	for dec.More() {
		areaName, err := readKey(dec)
		if err != nil {
			return err
		}
		area := &Area{Name: areaName}
		if err := expectDelim(dec, '{'); err != nil {
			return fmt.Errorf("area %q: %w", areaName, err)
		}
		for dec.More() {
			storageName, err := readKey(dec)
			if err != nil {
				return err
			}
			var items []Item
			if err := dec.Decode(&items); err != nil {
				return fmt.Errorf("storage %q in area %q: %w", storageName, areaName, err)
			}
			if existing := area.Storage(storageName); existing != nil {
				existing.Items = items
			} else {
				area.Storages = append(area.Storages, &StorageLocation{Name: storageName, Items: items})
			}
		}
		if err := expectDelim(dec, '}'); err != nil {
			return err
		}
		replaced := false
		for i, a := range areas {
			if a.Name == areaName {
				areas[i] = area
				replaced = true
				break
			}
		}
		if !replaced {
			areas = append(areas, area)
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return err
	}
	inv.Areas = areas
	return nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return key, nil
}

// EncodeDocument renders the inventory as the indented JSON document.
func EncodeDocument(inv *Inventory) ([]byte, error) {
	raw, err := json.Marshal(inv)
	if err != nil {
		return nil, fmt.Errorf("failed to encode inventory: %w", err)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return nil, fmt.Errorf("failed to indent inventory: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// DecodeDocument parses a persisted document. Any parse failure is reported
// as ErrCorruptDocument so callers never mistake it for an empty inventory.
func DecodeDocument(data []byte) (*Inventory, error) {
	inv := NewInventory()
	if err := json.Unmarshal(data, inv); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	return inv, nil
}
