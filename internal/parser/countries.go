package parser

// countryCodes maps project-name country labels to ISO 3166-1 alpha-2 codes.
// The catalog mixes English names, native spellings, and a handful of
// abbreviations, so each code may appear under several aliases.
var countryCodes = map[string]string{
	// Europe
	"Australia": "AU", "Netherlands": "NL", "Sweden": "SE",
	"United Kingdom": "GB", "UK": "GB", "Britain": "GB",
	"Italy": "IT", "Germany": "DE", "Deutschland": "DE", "France": "FR",
	"Spain": "ES", "España": "ES", "Poland": "PL", "Polska": "PL",
	"Belgium": "BE", "Danmark": "DK", "Denmark": "DK", "Norway": "NO",
	"Norge": "NO", "Finland": "FI", "Suomi": "FI",
	"Switzerland": "CH", "Schweiz": "CH", "Austria": "AT", "Österreich": "AT",
	"Czech": "CZ", "Czech Republic": "CZ", "Czechia": "CZ", "Slovakia": "SK",
	"Hungary": "HU", "Slovenia": "SI",
	"Croatia": "HR", "Hrvatska": "HR", "Serbia": "RS", "Srbija": "RS",
	"Romania": "RO", "România": "RO",
	"Bulgaria": "BG", "България": "BG", "Greece": "GR", "Ελλάδα": "GR",
	"Portugal": "PT", "Ireland": "IE", "Éire": "IE",
	"Lithuania": "LT", "Lietuva": "LT", "Latvia": "LV", "Latvija": "LV",
	"Estonia": "EE", "Eesti": "EE",
	"Malta": "MT", "Cyprus": "CY", "Κύπρος": "CY", "Luxembourg": "LU",
	"Iceland": "IS", "Ísland": "IS",

	// North America
	"Canada": "CA", "United States": "US", "USA": "US", "U.S.": "US",
	"U.S.A.": "US", "America": "US",
	"Mexico": "MX", "México": "MX",

	// Asia Pacific
	"Japan": "JP", "日本": "JP", "South Korea": "KR", "Korea": "KR", "한국": "KR",
	"Taiwan": "TW", "臺灣": "TW", "台湾": "TW",
	"Singapore": "SG", "Hong Kong": "HK", "香港": "HK", "Malaysia": "MY",
	"Thailand": "TH", "ประเทศไทย": "TH",
	"India": "IN", "भारत": "IN", "China": "CN", "中国": "CN", "中國": "CN",
	"Indonesia": "ID", "Philippines": "PH",
	"Vietnam": "VN", "Viet Nam": "VN", "Việt": "VN", "Cambodia": "KH",
	"Laos": "LA", "Myanmar": "MM",
	"Bangladesh": "BD", "Sri Lanka": "LK", "Nepal": "NP", "Bhutan": "BT",
	"Maldives": "MV",
	"Pakistan": "PK", "Afghanistan": "AF", "Iran": "IR", "Iraq": "IQ",
	"Syria": "SY", "Lebanon": "LB", "Yemen": "YE",

	// Middle East & Africa
	"UAE": "AE", "United Arab Emirates": "AE", "Saudi Arabia": "SA",
	"Israel": "IL", "ישראל": "IL",
	"Jordan": "JO", "Kuwait": "KW", "Qatar": "QA", "Bahrain": "BH", "Oman": "OM",
	"South Africa": "ZA", "Egypt": "EG", "مصر": "EG", "Morocco": "MA",
	"المغرب": "MA", "Tunisia": "TN", "Algeria": "DZ",
	"Turkey": "TR", "Türkiye": "TR", "Turkiye": "TR",
	"Russian Federation": "RU", "Russia": "RU", "Россия": "RU",

	// Americas
	"Brazil": "BR", "Brasil": "BR", "Argentina": "AR", "Chile": "CL",
	"Colombia": "CO", "Peru": "PE", "Perú": "PE",
	"Venezuela": "VE", "Ecuador": "EC", "Uruguay": "UY", "Paraguay": "PY",
	"Bolivia": "BO",
	"Costa Rica": "CR", "Panama": "PA", "Panamá": "PA",
	"Dominican Republic": "DO", "Puerto Rico": "PR",
	"Jamaica": "JM", "Trinidad and Tobago": "TT", "Barbados": "BB",
	"New Zealand": "NZ",

	// Eastern Europe & Central Asia
	"Ukraine": "UA", "Україна": "UA", "Belarus": "BY", "Kazakhstan": "KZ",
	"Uzbekistan": "UZ",
	"Georgia": "GE", "Armenia": "AM", "Azerbaijan": "AZ", "Kyrgyzstan": "KG",
	"Tajikistan": "TJ",
	"Turkmenistan": "TM", "Moldova": "MD", "Mongolia": "MN",

	// Africa continued
	"Ethiopia": "ET", "Kenya": "KE", "Uganda": "UG", "Tanzania": "TZ",
	"Rwanda": "RW", "Burundi": "BI",
	"Madagascar": "MG", "Mauritius": "MU", "Seychelles": "SC", "Comoros": "KM",
	"Djibouti": "DJ",
	"Somalia": "SO", "Eritrea": "ER", "Sudan": "SD", "South Sudan": "SS",
	"Chad": "TD",
	"Central African Republic": "CF", "Cameroon": "CM",
	"Equatorial Guinea": "GQ", "Gabon": "GA",
	"Republic of the Congo": "CG", "Democratic Republic of the Congo": "CD",
	"Angola": "AO",
	"Zambia": "ZM", "Zimbabwe": "ZW", "Botswana": "BW", "Namibia": "NA",
	"Sao Tome and Principe": "ST",
	"Cape Verde": "CV", "Guinea-Bissau": "GW", "Guinea": "GN",
	"Sierra Leone": "SL", "Liberia": "LR",
	"Ivory Coast": "CI", "Ghana": "GH", "Burkina Faso": "BF", "Mali": "ML",
	"Niger": "NE", "Nigeria": "NG",
	"Benin": "BJ", "Togo": "TG", "Senegal": "SN", "Gambia": "GM",
	"Mauritania": "MR", "Western Sahara": "EH", "Libya": "LY",
}

// LookupCountry returns the ISO code for a country label from a project name
func LookupCountry(label string) (string, bool) {
	code, ok := countryCodes[label]
	return code, ok
}
