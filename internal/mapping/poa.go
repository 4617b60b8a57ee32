package mapping

// Power of attorney templates. Field names follow the AcroForm names of the
// office's PDF templates; the combined template stacks the three pages in one
// file, so names are unique across pages.

var poaAdultPage = Page{
	Name: "adult",
	Fields: []Field{
		{"dorosly_imie_nazwisko", C("applicant_first_name", "applicant_last_name")},
		{"dorosly_nazwisko_rodowe", D("applicant_maiden_name")},
		{"dorosly_data_urodzenia", D("applicant_date_of_birth")},
		{"dorosly_miejsce_urodzenia", D("applicant_place_of_birth")},
		{"dorosly_nr_paszportu", D("applicant_passport_number")},
		{"dorosly_adres", D("applicant_address")},
		{"dorosly_miasto", D("applicant_city")},
		{"dorosly_kod_pocztowy", D("applicant_postal_code")},
		{"dorosly_kraj", D("applicant_country")},
		{"dorosly_email", D("applicant_email")},
		{"dorosly_telefon", D("applicant_phone")},
		{"dorosly_pelnomocnik", D("attorney_name")},
		{"dorosly_miejscowosc", D("poa_signing_place")},
		{"dorosly_data_dzien", N("poa_date", "day")},
		{"dorosly_data_miesiac", N("poa_date", "month")},
		{"dorosly_data_rok", N("poa_date", "year")},
	},
}

var poaMinorPage = Page{
	Name: "minor",
	Fields: []Field{
		{"maloletni_rodzic_imie_nazwisko", C("applicant_first_name", "applicant_last_name")},
		{"maloletni_rodzic_nr_paszportu", D("applicant_passport_number")},
		{"maloletni_rodzic_adres", D("applicant_address")},
		{"maloletni_imie_nazwisko", C("child_first_name", "child_last_name")},
		{"maloletni_data_urodzenia", D("child_date_of_birth")},
		{"maloletni_miejsce_urodzenia", D("child_place_of_birth")},
		{"maloletni_nr_paszportu", D("child_passport_number")},
		{"maloletni_pelnomocnik", D("attorney_name")},
		{"maloletni_miejscowosc", D("poa_signing_place")},
		{"maloletni_data_dzien", N("poa_date", "day")},
		{"maloletni_data_miesiac", N("poa_date", "month")},
		{"maloletni_data_rok", N("poa_date", "year")},
	},
}

var poaSpousesPage = Page{
	Name: "spouses",
	Fields: []Field{
		{"malzonkowie_maz_imie_nazwisko", C("applicant_first_name", "applicant_last_name")},
		{"malzonkowie_maz_nr_paszportu", D("applicant_passport_number")},
		{"malzonkowie_zona_imie_nazwisko", C("spouse_first_name", "spouse_last_name")},
		{"malzonkowie_zona_nazwisko_rodowe", D("spouse_maiden_name")},
		{"malzonkowie_zona_nr_paszportu", D("spouse_passport_number")},
		{"malzonkowie_data_slubu", D("marriage_date")},
		{"malzonkowie_miejsce_slubu", D("marriage_place")},
		{"malzonkowie_adres", D("applicant_address")},
		{"malzonkowie_pelnomocnik", D("attorney_name")},
		{"malzonkowie_miejscowosc", D("poa_signing_place")},
		{"malzonkowie_data_dzien", N("poa_date", "day")},
		{"malzonkowie_data_miesiac", N("poa_date", "month")},
		{"malzonkowie_data_rok", N("poa_date", "year")},
	},
}

var (
	poaAdultRequired = []string{
		"applicant_first_name",
		"applicant_last_name",
		"applicant_passport_number",
		"applicant_date_of_birth",
		"applicant_address",
	}
	poaMinorRequired = []string{
		"applicant_first_name",
		"applicant_last_name",
		"applicant_passport_number",
		"child_first_name",
		"child_last_name",
		"child_date_of_birth",
	}
	poaSpousesRequired = []string{
		"applicant_first_name",
		"applicant_last_name",
		"applicant_passport_number",
		"spouse_first_name",
		"spouse_last_name",
		"spouse_passport_number",
		"marriage_date",
	}
)

func init() {
	register(Template{
		Type:     "poa-adult",
		File:     "poa-adult.pdf",
		Required: poaAdultRequired,
		Pages:    []Page{poaAdultPage},
	})
	register(Template{
		Type:     "poa-minor",
		File:     "poa-minor.pdf",
		Required: poaMinorRequired,
		Pages:    []Page{poaMinorPage},
	})
	register(Template{
		Type:     "poa-spouses",
		File:     "poa-spouses.pdf",
		Required: poaSpousesRequired,
		Pages:    []Page{poaSpousesPage},
	})
	register(Template{
		Type:     "poa-combined",
		File:     "poa-combined.pdf",
		Required: mergeRequired(poaAdultRequired, poaMinorRequired, poaSpousesRequired),
		Pages:    []Page{poaAdultPage, poaMinorPage, poaSpousesPage},
	})
}
