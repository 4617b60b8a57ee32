package mapping

// Application for confirmation of Polish citizenship (wniosek o potwierdzenie
// posiadania obywatelstwa polskiego).
var citizenshipPage = Page{
	Name: "citizenship",
	Fields: []Field{
		{"wojewoda", D("voivodeship_office")},
		{"wnioskodawca_imie_nazwisko", C("applicant_first_name", "applicant_last_name")},
		{"wnioskodawca_adres", D("applicant_address")},
		{"wnioskodawca_email", D("applicant_email")},
		{"osoba_nazwisko", D("applicant_last_name")},
		{"osoba_nazwisko_rodowe", D("applicant_maiden_name")},
		{"osoba_imiona", D("applicant_first_name")},
		{"osoba_imie_ojca", D("father_first_name")},
		{"osoba_imie_nazwisko_matki", C("mother_first_name", "mother_last_name")},
		{"osoba_nazwisko_rodowe_matki", D("mother_maiden_name")},
		{"osoba_data_urodzenia_dzien", N("applicant_date_of_birth", "day")},
		{"osoba_data_urodzenia_miesiac", N("applicant_date_of_birth", "month")},
		{"osoba_data_urodzenia_rok", N("applicant_date_of_birth", "year")},
		{"osoba_miejsce_urodzenia", D("applicant_place_of_birth")},
		{"osoba_plec", D("applicant_sex")},
		{"osoba_obywatelstwa", D("applicant_citizenships")},
		{"osoba_pesel", D("applicant_pesel")},
		{"osoba_nr_paszportu", D("applicant_passport_number")},
		{"przodek_imie_nazwisko", C("ancestor_first_name", "ancestor_last_name")},
		{"przodek_data_urodzenia", D("ancestor_date_of_birth")},
		{"przodek_miejsce_urodzenia", D("ancestor_place_of_birth")},
		{"przodek_data_wyjazdu", D("emigration_date")},
		{"przodek_naturalizacja", D("ancestor_naturalization_date")},
		{"uzasadnienie", D("application_reasoning")},
		{"data_wniosku_dzien", N("submission_date", "day")},
		{"data_wniosku_miesiac", N("submission_date", "month")},
		{"data_wniosku_rok", N("submission_date", "year")},
	},
}

// Civil registry transcription request (umiejscowienie aktu stanu cywilnego).
var civilRegistryPage = Page{
	Name: "civil-registry",
	Fields: []Field{
		{"usc_kierownik", D("registry_office")},
		{"wnioskodawca", C("applicant_first_name", "applicant_last_name")},
		{"wnioskodawca_adres", D("applicant_address")},
		{"rodzaj_aktu", D("certificate_type")},
		{"akt_osoba", C("certificate_subject_first_name", "certificate_subject_last_name")},
		{"akt_miejsce_sporzadzenia", D("certificate_issue_place")},
		{"akt_kraj", D("certificate_country")},
		{"akt_data_dzien", N("certificate_date", "day")},
		{"akt_data_miesiac", N("certificate_date", "month")},
		{"akt_data_rok", N("certificate_date", "year")},
		{"tlumacz", D("translator_name")},
	},
}

func init() {
	register(Template{
		Type: "citizenship",
		File: "citizenship.pdf",
		Required: []string{
			"applicant_first_name",
			"applicant_last_name",
			"applicant_date_of_birth",
			"applicant_place_of_birth",
			"applicant_passport_number",
			"father_first_name",
			"mother_first_name",
			"mother_maiden_name",
			"ancestor_first_name",
			"ancestor_last_name",
		},
		Pages: []Page{citizenshipPage},
	})
	register(Template{
		Type: "civil-registry",
		File: "civil-registry.pdf",
		Required: []string{
			"applicant_first_name",
			"applicant_last_name",
			"certificate_type",
			"certificate_issue_place",
			"certificate_date",
		},
		Pages: []Page{civilRegistryPage},
	})
}
