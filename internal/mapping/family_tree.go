package mapping

var familyTreePage = Page{
	Name: "family-tree",
	Fields: []Field{
		{"applicant_full_name", C("applicant_first_name", "applicant_last_name")},
		{"applicant_dob", D("applicant_date_of_birth")},
		{"applicant_pob", D("applicant_place_of_birth")},
		{"spouse_full_name", C("spouse_first_name", "spouse_last_name")},
		{"marriage_date", D("marriage_date")},
		{"father_full_name", C("father_first_name", "father_last_name")},
		{"father_dob", D("father_date_of_birth")},
		{"father_pob", D("father_place_of_birth")},
		{"mother_full_name", C("mother_first_name", "mother_last_name")},
		{"mother_maiden_name", D("mother_maiden_name")},
		{"mother_dob", D("mother_date_of_birth")},
		{"mother_pob", D("mother_place_of_birth")},
		{"parents_marriage_date", D("parents_marriage_date")},
		{"pgf_full_name", C("paternal_grandfather_first_name", "paternal_grandfather_last_name")},
		{"pgf_dob", D("paternal_grandfather_date_of_birth")},
		{"pgf_pob", D("paternal_grandfather_place_of_birth")},
		{"pgm_full_name", C("paternal_grandmother_first_name", "paternal_grandmother_last_name")},
		{"pgm_maiden_name", D("paternal_grandmother_maiden_name")},
		{"pgm_dob", D("paternal_grandmother_date_of_birth")},
		{"mgf_full_name", C("maternal_grandfather_first_name", "maternal_grandfather_last_name")},
		{"mgf_dob", D("maternal_grandfather_date_of_birth")},
		{"mgm_full_name", C("maternal_grandmother_first_name", "maternal_grandmother_last_name")},
		{"mgm_maiden_name", D("maternal_grandmother_maiden_name")},
		{"mgm_dob", D("maternal_grandmother_date_of_birth")},
		{"polish_ancestor", D("polish_ancestor_relation")},
		{"emigration_year", N("emigration_date", "year")},
	},
}

func init() {
	register(Template{
		Type: "family-tree",
		File: "family-tree.pdf",
		Required: []string{
			"applicant_first_name",
			"applicant_last_name",
			"father_first_name",
			"father_last_name",
			"mother_first_name",
			"mother_last_name",
			"polish_ancestor_relation",
		},
		Pages: []Page{familyTreePage},
	})
}
