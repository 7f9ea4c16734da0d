package registry

const (
	CodeTypeGTIN  = "GTIN"
	CodeTypeOther = "OTHER"
)

// IdentifyCodeType reports GTIN for 8, 12, 13 or 14 digit codes with a valid
// GS1 check digit, OTHER for anything else.
func IdentifyCodeType(code string) string {
	switch len(code) {
	case 8, 12, 13, 14:
	default:
		return CodeTypeOther
	}

	sum := 0
	for i := 0; i < len(code); i++ {
		c := code[i]
		if c < '0' || c > '9' {
			return CodeTypeOther
		}
		if i == len(code)-1 {
			break
		}
		d := int(c - '0')
		// weights alternate 3,1 counting from the digit next to the check digit
		if (len(code)-2-i)%2 == 0 {
			d *= 3
		}
		sum += d
	}

	check := (10 - sum%10) % 10
	if int(code[len(code)-1]-'0') != check {
		return CodeTypeOther
	}
	return CodeTypeGTIN
}
