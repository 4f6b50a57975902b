package orangebook

// Product is a row of products.txt
type Product struct {
	Ingredient        string `csv:"Ingredient" json:"ingredient"`
	DosageFormRoute   string `csv:"DF;Route" json:"dosage_form_route"`
	TradeName         string `csv:"Trade_Name" json:"trade_name"`
	Applicant         string `csv:"Applicant" json:"applicant"`
	Strength          string `csv:"Strength" json:"strength"`
	ApplType          string `csv:"Appl_Type" json:"appl_type"`
	ApplNo            string `csv:"Appl_No" json:"appl_no"`
	ProductNo         string `csv:"Product_No" json:"product_no"`
	TECode            string `csv:"TE_Code" json:"te_code"`
	ApprovalDate      string `csv:"Approval_Date" json:"approval_date"`
	RLD               string `csv:"RLD" json:"rld"`
	RS                string `csv:"RS" json:"rs"`
	Type              string `csv:"Type" json:"type"`
	ApplicantFullName string `csv:"Applicant_Full_Name" json:"applicant_full_name"`
}

// Tables holds every parsed source table
type Tables struct {
	Patent      []Record `json:"patent"`
	Products    []Record `json:"products"`
	Exclusivity []Record `json:"exclusivity"`
	PurpleBook  []Record `json:"purple_book"`
}

// Bundle is every row sharing one application number. Slices are never nil.
type Bundle struct {
	ApplicationNumber string   `json:"application_number"`
	Patent            []Record `json:"patent"`
	Products          []Record `json:"products"`
	Exclusivity       []Record `json:"exclusivity"`
	PurpleBook        []Record `json:"purple_book"`
}

// Sources are the table URLs; PurpleBook may be empty
type Sources struct {
	Patent      string
	Products    string
	Exclusivity string
	PurpleBook  string
}
