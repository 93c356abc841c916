package schema

import (
	"os"

	"github.com/shopspring/decimal"

	"github.com/AutoLedger/AutoLedger/internal/xmldoc"
)

// 两份文档的固定结构定义。数值边界：1886 年第一辆汽车问世，
// 马力上限取量产车的宽松上界。

var (
	minYear       = 1886
	maxYear       = 2100
	minHorsepower = 0
	maxHorsepower = 2500
	minPrice      = decimal.Zero

	engineTypes    = []string{"petrol", "diesel", "electric", "hybrid"}
	paymentMethods = []string{"Cash", "Credit", "Financed"}
)

func carRule(name string, required bool) ElementRule {
	return ElementRule{
		Name:     name,
		Required: required,
		Attrs:    []AttrRule{{Name: "id", Required: true}},
		Children: []ElementRule{
			{Name: "brand", Required: true, Type: TypeString},
			{Name: "model", Required: true, Type: TypeString},
			{Name: "year", Required: true, Type: TypeInt, MinInt: &minYear, MaxInt: &maxYear},
			{
				Name: "price", Required: true, Type: TypeDecimal, MinDec: &minPrice,
				Attrs: []AttrRule{{Name: "currency", Required: true}},
			},
			{
				Name: "engine", Required: true, Type: TypeString,
				Attrs: []AttrRule{{Name: "type", Required: true, Enum: engineTypes}},
			},
			{Name: "horsepower", Required: true, Type: TypeInt, MinInt: &minHorsepower, MaxInt: &maxHorsepower},
		},
	}
}

func inventoryRule() ElementRule {
	car := carRule("car", false)
	car.Repeated = true
	return ElementRule{
		Name: "dealership",
		Children: []ElementRule{
			// encoding/xml 在零车辆时不会生成空的 <cars> 容器，所以不强制其存在
			{Name: "cars", Children: []ElementRule{car}},
		},
	}
}

func salesRule() ElementRule {
	return ElementRule{
		Name: "sales",
		Children: []ElementRule{
			{
				Name:     "sale",
				Repeated: true,
				Attrs:    []AttrRule{{Name: "saleId", Required: true}},
				Children: []ElementRule{
					{Name: "salesmanId", Required: true, Type: TypeString},
					{Name: "customerId", Required: true, Type: TypeString},
					{Name: "carId", Required: true, Type: TypeString},
					{Name: "dateTime", Required: true, Type: TypeDateTime},
					{Name: "paymentMethod", Required: true, Type: TypeString, Enum: paymentMethods},
					{Name: "price", Required: true, Type: TypeDecimal, MinDec: &minPrice},
					carRule("car", true),
				},
			},
		},
	}
}

// ValidateInventoryFile 校验库存文档。文档尚不存在视为空库存，无违规。
func ValidateInventoryFile(path string) ([]Violation, error) {
	return validateFile(path, inventoryRule())
}

// ValidateSalesFile 校验销售文档。尚无任何销售时文档不存在，无违规。
func ValidateSalesFile(path string) ([]Violation, error) {
	return validateFile(path, salesRule())
}

func validateFile(path string, rule ElementRule) ([]Violation, error) {
	tree, err := xmldoc.ParseTree(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return Validate(tree, rule), nil
}
