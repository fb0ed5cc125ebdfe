package domain

type CarCategory string

const (
	CarCategorySedan CarCategory = "SEDAN"
	CarCategorySUV   CarCategory = "SUV"
	CarCategoryVan   CarCategory = "VAN"
)

// ParseCarCategory validates a category string from storage or a request.
func ParseCarCategory(raw string) (CarCategory, error) {
	switch c := CarCategory(raw); c {
	case CarCategorySedan, CarCategorySUV, CarCategoryVan:
		return c, nil
	}
	return "", Validationf("unknown car category: %q", raw)
}

// Car holds the facts the reservation core needs about a fleet car.
// The inventory service owns the full record.
type Car struct {
	ID           int64       `json:"id"`
	Category     CarCategory `json:"category"`
	LicensePlate string      `json:"license_plate"`
	Make         string      `json:"make"`
	Model        string      `json:"model"`
	Year         int         `json:"year"`
	BranchCode   string      `json:"branch_code"`
	Available    bool        `json:"available"`
}

// Branch holds the facts the reservation core needs about a rental branch.
type Branch struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	City    string `json:"city"`
	Airport bool   `json:"airport"`
}
