// Package keywords holds the predefined planning terms and turns a user's
// selection into the ordered keyword list handed to the scanner.
package keywords

var catalog = []string{
	"Activity Centre",
	"Amendment",
	"Amendments Report",
	"Annual Plan",
	"Annual Report",
	"Area Plan",
	"Assessments",
	"Broadacre",
	"Budget",
	"City Plan",
	"Code Amendment",
	"Concept Plan",
	"Corporate Business Plan",
	"Corporate Plan",
	"Council Action Plan",
	"Council Business Plan",
	"Council Plan",
	"Council Report",
	"Development Investigation Area",
	"Development Plan",
	"Development Plan Amendment",
	"DPA",
	"Emerging community",
	"Employment land study",
	"Exhibition",
	"expansion",
	"Framework",
	"Framework plan",
	"Gateway Determination",
	"greenfield",
	"growth area",
	"growth plan",
	"growth plans",
	"housing",
	"Housing Strategy",
	"Industrial land study",
	"infrastructure plan",
	"infrastructure planning",
	"Inquiries",
	"Investigation area",
	"land use",
	"Land use strategy",
	"LDP",
	"Local Area Plan",
	"Local Development Area",
	"Local Development Plan",
	"Local Environmental Plan",
	"Local Planning Policy",
	"Local Planning Scheme",
	"Local Planning Strategy",
	"Local Strategic Planning Statement",
	"LPP",
	"LPS",
	"LSPS",
	"Major Amendment",
	"Major Update",
	"Master Plan",
	"Masterplan",
	"Neighbourhood Plan",
	"Operational Plan",
	"Planning Commission",
	"Planning Framework",
	"Planning Investigation Area",
	"Planning proposal",
	"Planning report",
	"Planning Scheme",
	"Planning Scheme Amendment",
	"Planning Strategy",
	"Precinct plan",
	"Priority Development Area",
	"Project Vision",
	"Rezoning",
	"settlement",
	"Strategy",
	"Structure Plan",
	"Structure Planning",
	"Study",
	"Territory plan",
	"Town Planning Scheme",
	"Township Plan",
	"TPS",
	"Urban Design Framework",
	"Urban growth",
	"Urban Release",
	"Urban renewal",
	"Variation",
	"Vision",
}

// Catalog returns a copy of the predefined planning keywords.
func Catalog() []string {
	return append([]string(nil), catalog...)
}
