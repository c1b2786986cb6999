package domain

var Tables = []interface{}{
	// Catalog
	&Product{},
	&Review{},
	&Recipe{},
	// Customer
	&Address{},
	&OrderLine{},
	&LoyaltyPoints{},
	&Notification{},
	// System
	&SysOprLog{},
}
