package chain

import (
	"fmt"
	"math/big"
	"strings"
)

// weiPerEther 1 ether = 10^18 wei
var weiPerEther = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// FromWei 将wei整数转换为十进制字符串 (最多18位小数, 去除尾部0)
func FromWei(v *big.Int) string {
	if v == nil {
		return "0"
	}
	r := new(big.Rat).SetFrac(v, weiPerEther)
	s := r.FloatString(18)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}

// ToWei 将十进制字符串转换为wei整数
func ToWei(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}

	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart = s[:i]
		fracPart = s[i+1:]
	}
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > 18 {
		return nil, fmt.Errorf("amount %s has more than 18 decimal places", s)
	}
	// 小数部分右侧补0到18位
	fracPart = fracPart + strings.Repeat("0", 18-len(fracPart))

	v, ok := new(big.Int).SetString(intPart+fracPart, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %s", s)
	}
	if negative {
		v.Neg(v)
	}
	return v, nil
}
