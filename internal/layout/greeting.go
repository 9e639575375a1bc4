package layout

import (
	"math/rand"
	"sync"
)

// Greetings are the Lunar New Year banners used by ChineseBanner.
var Greetings = []string{
	"新年快樂，諸事吉祥",
	"新年快樂，諸事如意",
	"新年快樂，諸事圓融",
	"新年快樂，諸事順利",
	"新年快樂，珠圓玉潤",
	"新年快樂，合璧連珠",
	"新年快樂，朱玉滿堂",
	"新年快樂，福相如豬",
	"新年快樂，豬年吉祥",
	"新年快樂，豬事大吉",
	"豬入門，百福臻",
	"新年快樂，金豬獻吉",
	"新年快樂，金豬賀歲",
	"新年快樂，金豬獻瑞",
	"豬報平安，豬肥人富",
	"春花百開，珠豬引福",
	"新年快樂，吉祥如豬",
	"新年快樂，喜從豬來",
	"新年快樂，豬豬平安",
	"新年快樂，朱帨迎祥",
	"新年快樂，豬年好運",
	"新年快樂，金豬頌春",
	"豬行大運，豬旺旺來",
	"豬年到好運到",
}

// Picker returns an index in [0, n).
type Picker func(n int) int

// RandomPicker uses the global math/rand source.
func RandomPicker(n int) int {
	return rand.Intn(n)
}

// SeededPicker is a reproducible Picker safe for concurrent use.
func SeededPicker(seed int64) Picker {
	var mu sync.Mutex
	rng := rand.New(rand.NewSource(seed))
	return func(n int) int {
		mu.Lock()
		defer mu.Unlock()
		return rng.Intn(n)
	}
}

// FixedPicker always picks i, wrapped into range.
func FixedPicker(i int) Picker {
	return func(n int) int {
		return i % n
	}
}

func pickFrom(choices []string, pick Picker) string {
	if len(choices) == 0 {
		return ""
	}
	if pick == nil {
		pick = RandomPicker
	}
	i := pick(len(choices))
	if i < 0 || i >= len(choices) {
		i = ((i % len(choices)) + len(choices)) % len(choices)
	}
	return choices[i]
}
