package models

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cast"
)

// Direction 买卖方向
type Direction string

const (
	DirectionBuy     Direction = "BUY"
	DirectionSell    Direction = "SELL"
	DirectionUnknown Direction = "UNKNOWN"
)

// 迅投数据字典中的买卖方向编码
var (
	buyPriceTypes  = map[string]struct{}{"18": {}, "1": {}, "BUY": {}}
	sellPriceTypes = map[string]struct{}{"19": {}, "2": {}, "SELL": {}}
)

// ParseDirection 根据委托价格类型解析买卖方向。
// 未识别的编码统一返回 DirectionUnknown，由调用方决定降级策略。
func ParseDirection(priceType string) Direction {
	if _, ok := buyPriceTypes[priceType]; ok {
		return DirectionBuy
	}
	if _, ok := sellPriceTypes[priceType]; ok {
		return DirectionSell
	}
	return DirectionUnknown
}

// 证券代码格式：6 位数字，可带 SH/SZ 前缀
var stockCodePattern = regexp.MustCompile(`^(SH|SZ)?[0-9]{6}$`)

// 迅投 PB-DBF 预埋单参数说明 V2.15 中定义的委托价格类型
var validPriceTypes = map[string]struct{}{
	"18": {}, "19": {}, "1": {}, "2": {}, "3": {}, "6": {},
	"M1": {}, "M2": {}, "M5": {}, "M6": {}, "M8": {},
	"9001": {}, "9002": {}, "9003": {}, "9004": {},
	"13": {}, "17": {}, "24": {}, "106": {},
	"BUY": {}, "SELL": {},
}

// Order 预埋单委托记录，解析自迅投 XT_DBF_ORDER 导出文件。
// 解析完成后不再修改。
type Order struct {
	OrderType  string `json:"order_type"`  // 下单类型
	PriceType  string `json:"price_type"`  // 委托价格类型
	StockCode  string `json:"stock_code"`  // 证券代码
	Volume     string `json:"volume"`      // 委托数量（数字字符串）
	AccountID  string `json:"account_id"`  // 下单资金账号
	ModePrice  string `json:"mode_price"`  // 委托价格
	Strategy   string `json:"strategy"`    // 策略备注
	Note       string `json:"note"`        // 投资备注
	InsertTime string `json:"insert_time"` // 写入时间
	BatchID    string `json:"batch_id"`    // 批次 ID
}

// Direction 获取买卖方向
func (o *Order) Direction() Direction {
	return ParseDirection(o.PriceType)
}

// ParsedVolume 委托数量。非法数字字符串按 0 处理，不报错。
func (o *Order) ParsedVolume() int64 {
	v := cast.ToInt64(strings.TrimSpace(o.Volume))
	if v < 0 {
		return 0
	}
	return v
}

// StrategyOrDefault 策略备注，为空时归入 DEFAULT 策略
func (o *Order) StrategyOrDefault() string {
	if o.Strategy == "" {
		return "DEFAULT"
	}
	return o.Strategy
}

// Validate 校验订单数据，返回是否有效以及错误列表
func (o *Order) Validate() (bool, []string) {
	var errs []string

	required := []struct {
		name  string
		value string
	}{
		{"order_type", o.OrderType},
		{"price_type", o.PriceType},
		{"stock_code", o.StockCode},
		{"volume", o.Volume},
		{"account_id", o.AccountID},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, fmt.Sprintf("缺少必填字段：%s", f.name))
		}
	}

	if o.StockCode != "" && !stockCodePattern.MatchString(o.StockCode) {
		errs = append(errs, fmt.Sprintf("证券代码格式错误：%s", o.StockCode))
	}

	if o.Volume != "" {
		if _, err := cast.ToInt64E(strings.TrimSpace(o.Volume)); err != nil {
			errs = append(errs, fmt.Sprintf("委托数量必须为数字：%s", o.Volume))
		}
	}

	if o.PriceType != "" {
		if _, ok := validPriceTypes[o.PriceType]; !ok {
			errs = append(errs, fmt.Sprintf("委托价格类型未知：%s", o.PriceType))
		}
	}

	return len(errs) == 0, errs
}
