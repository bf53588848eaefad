package generation

import (
	"fmt"
	"strings"
)

// CourseLength is the requested trip length category.
type CourseLength string

const (
	// HalfDay is a course of two to three hours.
	HalfDay CourseLength = "half-day"
	// FullDay is a course of five to six hours.
	FullDay CourseLength = "full-day"
)

// Hint returns the time range shown to the model. It only steers generation;
// durations in responses always come from directions data.
func (c CourseLength) Hint() string {
	switch c {
	case FullDay:
		return "5〜6時間"
	default:
		return "2〜3時間"
	}
}

// Shape selects the JSON payload the model is asked to produce.
type Shape int

const (
	// ShapeCourses asks for an array of up to MaxCandidates courses.
	ShapeCourses Shape = iota
	// ShapeCourse asks for a single course object.
	ShapeCourse
	// ShapeShop asks for a single gyoza shop object.
	ShapeShop
)

// MaxCandidates is the number of courses requested from the model. Replies
// with more are accepted.
const MaxCandidates = 3

// PromptInput carries the trip parameters embedded in the prompt.
type PromptInput struct {
	Shape              Shape
	StartPoint         string
	FoodType           string
	IncludeSightseeing bool
	Course             CourseLength

	// Legacy shop parameters.
	DistanceKm  int
	ElevationM  int
	DurationMin int
}

const courseSchema = `{
  "title": "コース名",
  "short_description": "一行の紹介文",
  "description": "コース全体の説明",
  "stops": ["%[1]s", "立ち寄り先1", "立ち寄り先2", "%[1]s"],
  "spots": [
    {
      "name": "立ち寄り先1",
      "description": "お店やスポットの説明",
      "menu": "おすすめメニュー",
      "price": 500,
      "calories": 350
    }
  ]
}`

const shopSchema = `{
  "name": "餃子の〇〇",
  "comment": "肉汁たっぷりで行列ができる人気店"
}`

// BuildPrompt renders the model instruction for in.
func BuildPrompt(in PromptInput) string {
	if in.Shape == ShapeShop {
		return buildShopPrompt(in)
	}

	var b strings.Builder
	b.WriteString("あなたは宇都宮のサイクリングツアーガイドです。\n")
	if in.Shape == ShapeCourses {
		fmt.Fprintf(&b, "以下の条件に合った餃子を楽しむサイクリングコースを最大%d件提案してください。\n", MaxCandidates)
	} else {
		b.WriteString("以下の条件に合った餃子を楽しむサイクリングコースを1件提案してください。\n")
	}
	b.WriteString("店舗やスポットはできるだけ正式名称で出力してください。\n\n")

	fmt.Fprintf(&b, "- 出発地点：%s（出発地点に戻ってくる周回コース）\n", in.StartPoint)
	fmt.Fprintf(&b, "- 所要時間：%s\n", in.Course.Hint())
	fmt.Fprintf(&b, "- 餃子の好み：%s\n", in.FoodType)
	if in.IncludeSightseeing {
		b.WriteString("- 餃子店に加えて観光スポットも1〜2か所立ち寄り先に含めてください\n")
	} else {
		b.WriteString("- 立ち寄り先は餃子店のみにしてください\n")
	}

	b.WriteString("\nstopsの最初と最後は出発地点にしてください。spotsには出発地点以外の立ち寄り先をすべて記載してください。\n")
	b.WriteString("出力は```json で始まるコードブロックに、以下の形式のJSONで：\n")

	schema := fmt.Sprintf(courseSchema, in.StartPoint)
	if in.Shape == ShapeCourses {
		b.WriteString("[\n")
		b.WriteString(schema)
		b.WriteString("\n]\n")
	} else {
		b.WriteString(schema)
		b.WriteString("\n")
	}

	return b.String()
}

func buildShopPrompt(in PromptInput) string {
	var b strings.Builder
	b.WriteString("あなたは宇都宮のサイクリングツアーガイドです。以下の条件に合った餃子店を1件おすすめしてください。\n")
	b.WriteString("できるだけ正式な店舗名を出力してください。\n\n")
	fmt.Fprintf(&b, "- 距離：約%dkm\n", in.DistanceKm)
	fmt.Fprintf(&b, "- 獲得標高：約%dm\n", in.ElevationM)
	fmt.Fprintf(&b, "- 所要時間：約%d分\n", in.DurationMin)
	fmt.Fprintf(&b, "- 餃子タイプ：%s\n\n", in.FoodType)
	b.WriteString("出力形式は以下のJSONで：\n")
	b.WriteString(shopSchema)
	b.WriteString("\n")
	return b.String()
}
