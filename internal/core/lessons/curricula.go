// Package lessons holds the built-in learning curricula and their UI strings.
package lessons

import "github.com/steveyiyo/signspeak/internal/model"

var curricula = map[model.Language][]model.Lesson{
	model.English: {
		{ID: "1", Title: "A", Category: "Alphabets", Description: "Make a fist with the thumb on the side.", TargetGesture: "Alphabet A"},
		{ID: "2", Title: "B", Category: "Alphabets", Description: "Open palm, thumb folded in.", TargetGesture: "Alphabet B"},
		{ID: "3", Title: "Hello", Category: "Basics", Description: "A flat hand starting from the forehead out.", TargetGesture: "Hello"},
		{ID: "4", Title: "Thank You", Category: "Basics", Description: "Touch your chin and move hand forward.", TargetGesture: "Thank You"},
		{ID: "5", Title: "Emergency", Category: "Emergency", Description: "Shake a fist with thumb between fingers.", TargetGesture: "Help"},
	},
	model.EnglishUK: {
		{ID: "1", Title: "A", Category: "Alphabets", Description: "Form a fist with your thumb resting against the side.", TargetGesture: "Alphabet A"},
		{ID: "2", Title: "B", Category: "Alphabets", Description: "Flat palm with the thumb tucked across the palm.", TargetGesture: "Alphabet B"},
		{ID: "3", Title: "Hello", Category: "Basics", Description: "A salute-like motion starting from the temple.", TargetGesture: "Hello"},
		{ID: "4", Title: "Cheers / Thanks", Category: "Basics", Description: "Touch your chin with fingertips and move outward.", TargetGesture: "Thank You"},
		{ID: "5", Title: "SOS", Category: "Emergency", Description: "Vigorously shake a closed fist.", TargetGesture: "Help"},
	},
	model.Hindi: {
		{ID: "1", Title: "अ (A)", Category: "वर्णमाला", Description: "अंगूठे को बगल में रखते हुए मुट्ठी बनाएं।", TargetGesture: "Alphabet A"},
		{ID: "2", Title: "ब (B)", Category: "वर्णमाला", Description: "खुली हथेली, अंगूठा अंदर की ओर मुड़ा हुआ।", TargetGesture: "Alphabet B"},
		{ID: "3", Title: "नमस्ते (Hello)", Category: "बुनियादी", Description: "माथे से बाहर की ओर जाती हुई सपाट हथेली।", TargetGesture: "Hello"},
		{ID: "4", Title: "धन्यवाद (Thank You)", Category: "बुनियादी", Description: "ठोड़ी को छुएं और हाथ को आगे बढ़ाएं।", TargetGesture: "Thank You"},
		{ID: "5", Title: "आपातकालीन (Emergency)", Category: "आपातकालीन", Description: "उंगलियों के बीच अंगूठा रखकर मुट्ठी हिलाएं।", TargetGesture: "Help"},
	},
	model.Marathi: {
		{ID: "1", Title: "अ (A)", Category: "मुळाक्षरे", Description: "अंगठा बाजूला ठेवून मूठ तयार करा.", TargetGesture: "Alphabet A"},
		{ID: "2", Title: "ब (B)", Category: "मुळाक्षरे", Description: "उघडा तळहात, अंगठा आतल्या बाजूला दुमडलेला.", TargetGesture: "Alphabet B"},
		{ID: "3", Title: "नमस्कार (Hello)", Category: "मूलभूत", Description: "कपाळापासून बाहेरच्या दिशेला जाणारा सपाट हात.", TargetGesture: "Hello"},
		{ID: "4", Title: "धन्यवाद (Thank You)", Category: "मूलभूत", Description: "हनुवटीला स्पर्श करा आणि हात समोर न्या.", TargetGesture: "Thank You"},
		{ID: "5", Title: "तात्काळ मदत (Emergency)", Category: "तात्काळ", Description: "बोटांमध्ये अंगठा ठेवून मूठ हलवा.", TargetGesture: "Help"},
	},
}

// UIText is the localized chrome of the learning screen.
type UIText struct {
	Back       string
	Title      string
	Sub        string
	Check      string
	Practicing string
	Start      string
	Analyzing  string
	Perfect    string
	TryAgain   string
}

var uiText = map[model.Language]UIText{
	model.English: {
		Back: "Back to Curriculum", Title: "LEARNING CENTER", Sub: "Master sign language with beginner-friendly AI feedback.",
		Check: "CHECK MY SIGN", Practicing: "Ready to try it?", Start: "START PRACTICE",
		Analyzing: "ANALYZING...", Perfect: "Great Job!", TryAgain: "Keep Going!",
	},
	model.EnglishUK: {
		Back: "Return to Lessons", Title: "STUDY CENTRE", Sub: "Master sign language with helpful AI guidance.",
		Check: "EVALUATE MY SIGN", Practicing: "Ready for a go?", Start: "BEGIN PRACTICE",
		Analyzing: "PROCESSING...", Perfect: "Brilliant!", TryAgain: "Nearly there!",
	},
	model.Hindi: {
		Back: "पाठ्यक्रम पर वापस जाएं", Title: "शिक्षा केंद्र", Sub: "AI फीडबैक के साथ आसानी से सांकेतिक भाषा सीखें।",
		Check: "मेरे संकेत की जाँच करें", Practicing: "क्या आप तैयार हैं?", Start: "अभ्यास शुरू करें",
		Analyzing: "विश्लेषण हो रहा है...", Perfect: "बहुत अच्छे!", TryAgain: "कोशिश जारी रखें!",
	},
	model.Marathi: {
		Back: "अभ्यासक्रमावर परत जा", Title: "शिक्षण केंद्र", Sub: "AI फीडबॅकसह सोप्या पद्धतीने सांकेतिक भाषा शिका.",
		Check: "माझ्या खुणेची तपासणी करा", Practicing: "तुम्ही तयार आहात का?", Start: "सराव सुरू करा",
		Analyzing: "विशलेषण सुरू आहे...", Perfect: "खूप छान!", TryAgain: "प्रयत्न करत राहा!",
	},
}

// For returns a copy of the curriculum for lang, falling back to US English.
func For(lang model.Language) []model.Lesson {
	c, ok := curricula[lang]
	if !ok {
		c = curricula[model.English]
	}
	return append([]model.Lesson(nil), c...)
}

// Text returns the UI strings for lang, falling back to US English.
func Text(lang model.Language) UIText {
	if t, ok := uiText[lang]; ok {
		return t
	}
	return uiText[model.English]
}

// Find looks a lesson up by id within lang's curriculum.
func Find(lang model.Language, id string) (model.Lesson, bool) {
	for _, l := range For(lang) {
		if l.ID == id {
			return l, true
		}
	}
	return model.Lesson{}, false
}
