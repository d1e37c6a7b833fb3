package lint

// Region is an entry of the coverage reference table.
type Region struct {
	Code string
	Name string
}

// Regions is a fixed subset of populous regions checked for coverage, most
// populous first. Failing regions are reported in this order.
var Regions = []Region{
	{Code: "CN", Name: "China"},
	{Code: "IN", Name: "India"},
	{Code: "US", Name: "United States"},
	{Code: "ID", Name: "Indonesia"},
	{Code: "BR", Name: "Brazil"},
	{Code: "RU", Name: "Russia"},
	{Code: "NG", Name: "Nigeria"},
	{Code: "JP", Name: "Japan"},
	{Code: "BD", Name: "Bangladesh"},
	{Code: "PK", Name: "Pakistan"},
	{Code: "MX", Name: "Mexico"},
	{Code: "PH", Name: "Philippines"},
	{Code: "VN", Name: "Vietnam"},
	{Code: "DE", Name: "Germany"},
	{Code: "EG", Name: "Egypt"},
	{Code: "TR", Name: "Turkey"},
}
