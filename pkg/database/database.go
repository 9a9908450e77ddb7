package database

import (
	"encoding/json"
	"fmt"
	"log"

	"lingua_edu_backend/internal/config"
	"lingua_edu_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	err = db.AutoMigrate(
		&model.User{},
		&model.Question{},
		&model.Assessment{},
		&model.LevelSnapshot{},
		&model.LearningDnaProfile{},
		&model.ReviewableItem{},
		&model.ReviewLog{},
		&model.InterferencePattern{},
		&model.SpeakingSample{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	if err := SeedQuestionBank(db); err != nil {
		return nil, err
	}

	return db, nil
}

func mcOptions(opts ...string) json.RawMessage {
	data, _ := json.Marshal(opts)
	return data
}

// SeedQuestionBank 题库为空时写入默认题集：
// 定级题 5 题覆盖 CEFR 全谱，诊断题每个等级五项技能各一题。
// 生产环境用教师端导入替换，这里只保证系统开箱可用。
func SeedQuestionBank(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.Question{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	placement := []model.Question{
		{Phase: model.PhasePlacement, Level: model.LevelA1, Prompt: "She ___ a teacher.", Options: mcOptions("is", "are", "be", "am"), Answer: "is", Order: 1, Enabled: true},
		{Phase: model.PhasePlacement, Level: model.LevelA2, Prompt: "I ___ to the cinema yesterday.", Options: mcOptions("go", "went", "gone", "going"), Answer: "went", Order: 2, Enabled: true},
		{Phase: model.PhasePlacement, Level: model.LevelB1, Prompt: "If I ___ more time, I would travel.", Options: mcOptions("have", "had", "has", "having"), Answer: "had", Order: 3, Enabled: true},
		{Phase: model.PhasePlacement, Level: model.LevelB2, Prompt: "The report ___ by the committee before the deadline.", Options: mcOptions("completed", "had been completed", "has completing", "completes"), Answer: "had been completed", Order: 4, Enabled: true},
		{Phase: model.PhasePlacement, Level: model.LevelC1, Prompt: "___ had the negotiations begun than the parties reached an impasse.", Options: mcOptions("No sooner", "Hardly", "Scarcely ever", "Not until"), Answer: "No sooner", Order: 5, Enabled: true},
	}

	diagnostic := defaultDiagnosticQuestions()

	return db.Transaction(func(tx *gorm.DB) error {
		for i := range placement {
			if err := tx.Create(&placement[i]).Error; err != nil {
				return err
			}
		}
		for i := range diagnostic {
			if err := tx.Create(&diagnostic[i]).Error; err != nil {
				return err
			}
		}
		log.Printf("Question bank seeded: %d placement, %d diagnostic", len(placement), len(diagnostic))
		return nil
	})
}

func defaultDiagnosticQuestions() []model.Question {
	type row struct {
		skill, level, prompt, answer string
		options                      []string
	}

	rows := []row{
		{model.SkillGrammar, model.LevelA1, "He ___ football every Sunday.", "plays", []string{"play", "plays", "playing", "played"}},
		{model.SkillGrammar, model.LevelA2, "They ___ dinner when I arrived.", "were having", []string{"have", "were having", "has", "had have"}},
		{model.SkillGrammar, model.LevelB1, "I wish I ___ speak French.", "could", []string{"can", "could", "will", "would to"}},
		{model.SkillGrammar, model.LevelB2, "Rarely ___ such dedication in a student.", "have I seen", []string{"I have seen", "have I seen", "I saw", "did I saw"}},
		{model.SkillGrammar, model.LevelC1, "___ the weather, the expedition proceeded.", "Notwithstanding", []string{"Despite of", "Notwithstanding", "Although", "Even"}},
		{model.SkillGrammar, model.LevelC2, "The committee insisted that he ___ present.", "be", []string{"is", "be", "was", "will be"}},

		{model.SkillVocabulary, model.LevelA1, "The opposite of 'hot' is ___.", "cold", []string{"warm", "cold", "cool", "ice"}},
		{model.SkillVocabulary, model.LevelA2, "A person who teaches is a ___.", "teacher", []string{"doctor", "teacher", "driver", "singer"}},
		{model.SkillVocabulary, model.LevelB1, "To 'postpone' means to ___.", "delay", []string{"cancel", "delay", "finish", "start"}},
		{model.SkillVocabulary, model.LevelB2, "'Ubiquitous' is closest in meaning to ___.", "everywhere", []string{"rare", "everywhere", "ancient", "transparent"}},
		{model.SkillVocabulary, model.LevelC1, "An 'ephemeral' trend is one that is ___.", "short-lived", []string{"short-lived", "permanent", "popular", "controversial"}},
		{model.SkillVocabulary, model.LevelC2, "To 'obfuscate' an argument is to ___ it.", "obscure", []string{"clarify", "obscure", "strengthen", "summarize"}},

		{model.SkillReading, model.LevelA1, "'The cat sleeps on the bed.' Where does the cat sleep?", "on the bed", []string{"on the floor", "on the bed", "in the garden", "on the sofa"}},
		{model.SkillReading, model.LevelA2, "'Tom can't come because he is ill.' Why can't Tom come?", "he is ill", []string{"he is busy", "he is ill", "he is away", "he is tired"}},
		{model.SkillReading, model.LevelB1, "'Despite the rain, the match continued.' What happened to the match?", "it continued", []string{"it was cancelled", "it continued", "it was delayed", "it was moved"}},
		{model.SkillReading, model.LevelB2, "'The findings, albeit preliminary, suggest a correlation.' The findings are ___.", "preliminary", []string{"conclusive", "preliminary", "contradictory", "fabricated"}},
		{model.SkillReading, model.LevelC1, "'Her critics, of whom there were many, remained unconvinced.' Her critics were ___.", "numerous", []string{"few", "numerous", "silent", "supportive"}},
		{model.SkillReading, model.LevelC2, "'The author's tone borders on the sardonic.' The tone is nearly ___.", "mocking", []string{"earnest", "mocking", "neutral", "jubilant"}},

		{model.SkillSpeaking, model.LevelA1, "Choose the best reply to 'How are you?'", "I'm fine, thanks", []string{"I'm fine, thanks", "Yes, I am", "It's a book", "Good night"}},
		{model.SkillSpeaking, model.LevelA2, "Choose the best way to order in a cafe.", "Could I have a coffee, please?", []string{"Give coffee", "Could I have a coffee, please?", "I coffee want", "You bring coffee now"}},
		{model.SkillSpeaking, model.LevelB1, "Choose the best way to disagree politely.", "I see your point, but I'm not sure I agree", []string{"You are wrong", "I see your point, but I'm not sure I agree", "No", "That is a stupid idea"}},
		{model.SkillSpeaking, model.LevelB2, "Choose the most natural hedge in discussion.", "I might be mistaken, but it seems to me that...", []string{"Listen to me carefully", "I might be mistaken, but it seems to me that...", "It is definitely true that", "Everyone knows"}},
		{model.SkillSpeaking, model.LevelC1, "Choose the most diplomatic way to interrupt.", "Sorry to cut in, but may I add something?", []string{"Stop talking", "Sorry to cut in, but may I add something?", "Me now", "Be quiet please"}},
		{model.SkillSpeaking, model.LevelC2, "Choose the register suitable for a formal debate rebuttal.", "With respect, that argument rather misses the point", []string{"Nah, that's wrong", "With respect, that argument rather misses the point", "Whatever you say", "You lose"}},

		{model.SkillWriting, model.LevelA1, "Choose the correctly written sentence.", "I live in London.", []string{"i live london", "I live in London.", "Live I in London", "I living London."}},
		{model.SkillWriting, model.LevelA2, "Choose the best linking word: 'I was tired, ___ I went to bed.'", "so", []string{"but", "so", "or", "if"}},
		{model.SkillWriting, model.LevelB1, "Choose the best opening for an informal email.", "Hi Anna, hope you're doing well.", []string{"To whom it may concern", "Hi Anna, hope you're doing well.", "Dear Sir or Madam", "Attention: Anna"}},
		{model.SkillWriting, model.LevelB2, "Choose the most cohesive transition: 'Sales fell. ___, the company expanded.'", "Nevertheless", []string{"Similarly", "Nevertheless", "Therefore", "Namely"}},
		{model.SkillWriting, model.LevelC1, "Choose the most concise revision of 'due to the fact that'.", "because", []string{"owing to the reality that", "because", "in light of the situation whereby", "as a consequence of the circumstance that"}},
		{model.SkillWriting, model.LevelC2, "Choose the sentence with the most precise nominalization.", "The committee's rejection of the proposal surprised no one.", []string{"That the committee rejected the proposal which surprised no one.", "The committee's rejection of the proposal surprised no one.", "The committee rejecting proposal surprised none.", "Rejection by committee of proposal, surprising no one."}},
	}

	questions := make([]model.Question, 0, len(rows))
	for i, r := range rows {
		questions = append(questions, model.Question{
			Phase:   model.PhaseDiagnostic,
			Skill:   r.skill,
			Level:   r.level,
			Prompt:  r.prompt,
			Options: mcOptions(r.options...),
			Answer:  r.answer,
			Order:   i + 1,
			Enabled: true,
		})
	}
	return questions
}
