package main

import (
	"fmt"
	"math/rand/v2"
)

var (
	familyNames = []string{"赵", "钱", "孙", "李", "周", "吴", "郑", "王", "冯", "陈", "褚", "卫", "蒋", "沈", "韩", "杨"}
	givenNames  = []string{"伟", "芳", "娜", "敏", "静", "丽", "强", "磊", "军", "洋", "勇", "艳", "杰", "娟", "涛", "明"}
)

type person struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type generator struct {
	rng *rand.Rand
}

func newGenerator(seed uint64) *generator {
	return &generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (g *generator) next() person {
	return person{Name: g.name(), Phone: g.phone()}
}

// name is a family name plus one or two given-name characters.
func (g *generator) name() string {
	name := familyNames[g.rng.IntN(len(familyNames))] + givenNames[g.rng.IntN(len(givenNames))]
	if g.rng.IntN(2) == 1 {
		name += givenNames[g.rng.IntN(len(givenNames))]
	}
	return name
}

// phone is an 11-digit mobile number with a 13-19 prefix.
func (g *generator) phone() string {
	return fmt.Sprintf("1%d%09d", 3+g.rng.IntN(7), g.rng.IntN(1_000_000_000))
}
