package models

// All lists every model managed by migrations.
func All() []any {
	return []any{&User{}, &Booking{}, &Quote{}, &Order{}}
}
