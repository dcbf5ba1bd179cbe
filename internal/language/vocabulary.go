package language

// CoreVocabulary is the fixed catalog of meanings a lexicon draws from,
// loosely following the Swadesh list.
var CoreVocabulary = []string{
	"I", "you", "he", "she", "we", "they", "this", "that",
	"who", "what", "where", "when", "how", "not",
	"one", "two", "three", "four", "five", "many", "all", "some", "few",
	"head", "eye", "ear", "nose", "mouth", "tooth", "tongue", "hand", "foot",
	"leg", "arm", "back", "belly", "neck", "heart", "blood", "bone", "skin",
	"hair", "horn", "tail", "feather", "egg", "fat",
	"mother", "father", "child", "man", "woman", "husband", "wife", "friend",
	"dog", "bird", "fish", "snake", "louse", "worm", "horse", "cow",
	"tree", "leaf", "root", "bark", "seed", "flower", "grass", "forest",
	"water", "fire", "earth", "stone", "sand", "dust", "smoke", "ash",
	"sun", "moon", "star", "sky", "cloud", "rain", "snow", "ice", "wind",
	"mountain", "river", "sea", "lake", "salt", "road", "house", "village",
	"eat", "drink", "bite", "suck", "spit", "blow", "breathe", "sleep",
	"walk", "run", "fly", "swim", "sit", "stand", "lie", "come", "go",
	"see", "hear", "know", "think", "smell", "fear", "say", "sing", "dance",
	"give", "take", "hold", "push", "pull", "cut", "hit", "split", "burn",
	"kill", "die", "live", "laugh", "cry", "hunt", "work", "play",
	"big", "small", "long", "short", "wide", "narrow", "thick", "thin",
	"heavy", "light", "hot", "cold", "warm", "wet", "dry", "full",
	"new", "old", "good", "bad", "rotten", "sharp", "dull", "smooth",
	"straight", "round", "near", "far", "right", "left",
	"red", "green", "yellow", "white", "black",
	"day", "night", "morning", "evening", "year", "name", "food", "meat",
	"knife", "rope", "spear", "boat", "war", "peace", "dream", "death",
}
