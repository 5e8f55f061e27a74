package scoring

import (
	"strings"

	"github.com/escalopa/quran-recite-grader/internal/domain"
)

func verse(surah, ayah int, text string) domain.VerseRecord {
	return domain.VerseRecord{Reference: domain.VerseReference{Surah: surah, Ayah: ayah}, Text: text}
}

var fatiha = []domain.VerseRecord{
	verse(1, 1, "بِسْمِ اللَّهِ الرَّحْمَٰنِ الرَّحِيمِ"),
	verse(1, 2, "الْحَمْدُ لِلَّهِ رَبِّ الْعَالَمِينَ"),
	verse(1, 3, "الرَّحْمَٰنِ الرَّحِيمِ"),
	verse(1, 4, "مَالِكِ يَوْمِ الدِّينِ"),
	verse(1, 5, "إِيَّاكَ نَعْبُدُ وَإِيَّاكَ نَسْتَعِينُ"),
	verse(1, 6, "اهْدِنَا الصِّرَاطَ الْمُسْتَقِيمَ"),
	verse(1, 7, "صِرَاطَ الَّذِينَ أَنْعَمْتَ عَلَيْهِمْ غَيْرِ الْمَغْضُوبِ عَلَيْهِمْ وَلَا الضَّالِّينَ"),
}

var ikhlas = []domain.VerseRecord{
	verse(112, 1, "قُلْ هُوَ اللَّهُ أَحَدٌ"),
	verse(112, 2, "اللَّهُ الصَّمَدُ"),
	verse(112, 3, "لَمْ يَلِدْ وَلَمْ يُولَدْ"),
	verse(112, 4, "وَلَمْ يَكُنْ لَهُ كُفُوًا أَحَدٌ"),
}

func joinTexts(verses []domain.VerseRecord) string {
	texts := make([]string, len(verses))
	for i, v := range verses {
		texts[i] = v.Text
	}
	return strings.Join(texts, " ")
}
