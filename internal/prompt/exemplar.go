package prompt

import (
	"sync"

	"github.com/emmihealth/planpipe/internal/models"
)

// The one-shot exemplar: a worked request/response pair for a beginner runner
// that is sent ahead of every live request. The input is rendered through the
// same template as live prompts so the model sees an exact structural match.

var exemplarInput = sync.OnceValue(func() string {
	profileJSON, err := renderProfile(exemplarProfile())
	if err != nil {
		// The exemplar profile is a fixed value; serialization cannot fail.
		panic(err)
	}
	return render("2025-03-19", "2025-04-06", "https://emmi.com/plans/1234", profileJSON)
})

func exemplarProfile() *models.Profile {
	age := 26
	feet := 5
	inches := 3
	weight := 150
	return &models.Profile{
		Name:         "Rosie",
		Age:          &age,
		HeightFeet:   &feet,
		HeightInches: &inches,
		WeightLbs:    &weight,
		Goals: []string{
			"Run 'x' miles without stopping",
			"Achieve a new personal record",
			"Manage stress/improve mood",
			"Feel better in your body",
			"Learn about female-specific training",
		},
		GoalsDetails:         "None, wants to get better at cardio",
		RunningExperience:    "New to running",
		RoutineDaysPerWeek:   "2",
		RoutineMilesPerWeek:  "Unknown",
		RoutineEasyPace:      "Unknown",
		RoutineLongestRun:    "Unknown",
		RecentRaceResults:    "None",
		ExtraTraining:        []string{"Strength training", "Yoga", "Pilates", "Swimming", "Cycling"},
		Injuries:             "Shin splints",
		PreferredLongRunDays: []string{"Sa"},
		PreferredWorkoutDays: []string{"M", "W", "F"},
		PreferredRestDays:    []string{"Su"},
		PastProblems:         []string{"Didn't see results", "Got overwhelmed", "Didn't understand plan"},
	}
}

const exemplarOutput = "```yaml\n" + `reasoning: |
  Rosie is a 26-year-old beginner runner with a history of shin splints. Her primary goals include building enough endurance to run continuously without stopping, stress management, and learning about female-specific training. At 5'3" and 150 lbs, she currently runs about twice per week and participates in other activities like strength training, yoga, swimming, and cycling.
  Given her beginner status and history of shin splints, I've designed a progressive plan that starts with run/walk intervals and gradually builds endurance while prioritizing injury prevention. The plan respects her preferred schedule (workouts on M/W/F, long runs on Saturday, rest on Sunday) and incorporates her other activities as beneficial cross-training and sources of fun.
  To prevent her from getting overwhelmed (a past issue), I've kept the structure simple and consistent. I've included detailed guidance on pre-run activation and post-run mobility specific to shin splint prevention. Strength training is incorporated twice weekly with an emphasis on lower body and core strength to support running mechanics and prevent injury.
  The nutrition guidance focuses on proper fueling for female athletes according to Stacy Sims' principles for an endomorph body type, with an emphasis on protein intake and recovery nutrition.
goal: Build endurance slowly and sustainably, prevent shin splints, and help Rosie find confidence and consistency in running.
sms_message: "Hey Rosie! This is Emmi! Here's the first few weeks of your personalized training plan: https://emmi.com/plans/1234. I've designed it to help you achieve your goals while avoiding pesky shin splints. This is just the start of your longer plan, so text me anytime with questions or modifications!"
weeks:
  - goal: "Hey Rosie! I'm so excited to be on this journey with you! For Week 0 (March 20-23), we're easing into strength training and run/walk workouts. These first few sessions will help your body start adapting before we begin a full week. Focus on form over intensity, and don't hesitate to reach out with any questions!"
    week_start_date: "2025-03-17"
    dates:
      - date: "2025-03-20"
        workouts:
          - type: "Strength Training"
            title: "Foundational Strength"
            summary: "Develop foundational strength to protect shins, knees, and hips."
            notes: "Hey Rosie! For this first strength session, focus on control and form over resistance. We're easing into strength training to make sure your shins, knees, and hips stay happy and healthy as you start running. Muscle activation and mobility are essential!"
            duration: 50
            distance: null
            focus: "full_body"
            effort: "4"
            activity: null
            steps:
              - name: "Muscle Activation"
                description: |
                  - Toe Yoga: Lift big toe while lowering others, then reverse; 10 reps per foot
                  - Heel Walks: Walk on heels with toes up; 30s x 3 rounds
                  - Monster Walks: Band above knees, take wide steps sideways with tension in glutes; 3x10 steps each way
                  - Foam roll calves: Roll under calf muscles, pause on tight spots; 1-2 min
              - name: "Lower Body"
                description: |
                  - Goblet Squat: Hold weight at chest, lower until thighs parallel; 3x10 reps with 15-20 lb kettlebell
                  - Romanian Deadlifts: Hinge at hips with flat back until weights reach mid-shin; 3x8 reps with 15-30 lb total
                  - Calf Raises: Rise onto balls of feet, lower slowly; 3x12 reps with bodyweight or 5-10 lb dumbbells
              - name: "Upper Body"
                description: |
                  - Dumbbell Shoulder Press: Press weights from shoulders to overhead; 3x10 reps with 8-15 lb dumbbells
                  - Bent-over Rows: Hinge forward, pull weights to ribcage; 3x10 reps with 10-15 lb dumbbells
              - name: "Core Stability"
                description: |
                  - Plank with Hip Drivers: Hold plank, rotate one hip down then up; 3x30 sec each side
                  - Deadbugs: Lie on back, extend opposite arm/leg while keeping back flat; 3x12 reps
              - name: "Mobility"
                description: |
                  - Foam roll calves and quads: 3-5 min
                  - Hip flexor stretch, seated hamstring stretch, figure 4 glute stretch
            before_tips:
              - "30-45 mins pre-workout: Greek Yogurt + Berries (1/2 cup plain Greek yogurt + 1/2 cup mixed berries + cinnamon, ~12g protein, ~15g carbs)"
              - "Try to fuel properly with protein and carbs before workouts! Fasted training disrupts females' normal hormonal function and increases injury risk."
            after_tips:
              - "Within 30 mins: Green Goddess Smoothie (1 scoop protein powder + 1/2 banana + 1 cup unsweetened almond milk + 1/2 tbsp chia seeds + handful of spinach, ~30g protein)"
      - date: "2025-03-21"
        workouts:
          - type: "Cross Training"
            title: "Low-Impact Cardio"
            summary: "Maintain aerobic fitness without impact on shins."
            notes: "Today should feel refreshing, not exhausting. We're cross-training today to let your body recover from its first strength session! Keep it light and move your body in any way that feels good."
            duration: 40
            distance: null
            focus: null
            effort: "3"
            activity: "Cycling or Swimming"
            steps:
              - name: "Cardio (pick one)"
                description: |
                  - Cycling: 20-30 min at low-moderate effort
                  - Swimming: 25-30 min of steady laps
              - name: "Post-Workout Mobility"
                description: |
                  - Foam roll calves, quads, IT band: Roll slowly, pause on tender spots; 3-5 min
                  - Hip flexor stretch, seated hamstring stretch, figure 4 glute stretch
            before_tips:
              - "30-45 mins pre-workout: Protein-Boosted Toast (1 slice sprouted grain toast with almond butter mixed with protein powder, ~12g protein, ~15g carbs)"
            after_tips:
              - "Within 60 mins: Turkey Hummus Plate (3oz sliced turkey + 2 tbsp hummus + your favorite veggies, ~21g protein, ~10g carbs)"
      - date: "2025-03-22"
        workouts:
          - type: "Easy Run"
            title: "First Run/Walk Session"
            summary: "Build aerobic endurance using short running intervals with plenty of recovery walking."
            notes: "Hey Rosie! For your first run/walk session, try to stay light on your feet and aim to take short, quick steps to keep a high cadence and minimize impact on your shins. Muscle activation exercises will help prime your body to support proper running form!"
            duration: 35
            distance: 2
            focus: null
            effort: "3"
            activity: null
            steps:
              - name: "Muscle Activation"
                description: |
                  - Toe Yoga: Lift big toe while lowering others, then reverse; 10 reps per foot
                  - Heel Walks: Walk on heels with toes up; 30s x 3 rounds
                  - Monster Walks: Band above knees, take wide steps sideways with tension in glutes; 2x10 steps each way
              - name: "Running Workout"
                description: |
                  - 5 min warm-up walk
                  - 15 min alternating 30s run / 60s walk
                  - 5 min cooldown walk
              - name: "Post-Run Mobility"
                description: |
                  - Foam roll calves, quads, IT band: 3-5 min
                  - Hip flexor stretch, seated hamstring stretch, figure 4 glute stretch
            before_tips:
              - "30-45 mins pre-run: Protein Almond Milk (1 cup unsweetened almond milk + 1/2 scoop protein powder, ~15g protein, ~2g carbs)"
            after_tips:
              - "Within 30 mins: Nutty Banana Greek Yogurt (1 cup Greek yogurt + 1/2 banana + 1 tbsp chopped walnuts, ~23g protein, ~20g carbs)"
      - date: "2025-03-23"
        workouts:
          - type: "Rest and Recovery"
            title: "Complete Rest Day"
            summary: "Complete recovery day to allow your body to adapt to our first training sessions."
            notes: "Hey Rosie! Congrats on making it through Week 0! If you're feeling tight or stiff, light stretching or yoga would be great. Could also take a short walk to loosen up your legs but try to take it easy!"
            duration: null
            distance: null
            focus: null
            effort: "Rest"
            activity: null
            steps: []
            before_tips:
              - "Protein is key for recovery: prioritize lean meats, fish, eggs, Greek yogurt, tofu, and legumes to aid in muscle repair."
              - "Listen to hunger cues: you just increased your activity level, so you might be hungrier than usual. To be a strong runner, you need to be a well-fueled runner!"
            after_tips: []
  - goal: "Rosie! We're off to the races! The goal for Week 1 is to establish a running and strength routine with a controlled run/walk structure that keeps your legs happy and injury-free. Given your history of shin splints, keep doing your pre-workout calf exercises and calf rolling! Running on softer surfaces like a dirt trail, track, or treadmill can also help. Feel free to text me if you have any questions or need modifications! :)"
    week_start_date: "2025-03-24"
    dates:
      - date: "2025-03-24"
        workouts:
          - type: "Strength Training"
            title: "Lower Body Foundations"
            summary: "Build lower body and core strength to support your run/walk progression."
            notes: "Hey Rosie! Same structure as last Thursday, so it should feel familiar. Add a little weight if everything felt easy, but form first!"
            duration: 50
            distance: null
            focus: "lower_body"
            effort: "4"
            activity: null
            steps:
              - name: "Muscle Activation"
                description: |
                  - Glute Bridges: Lift hips while lying on back, squeeze at top; 2x15 reps
                  - Banded Lateral Walks: Band above knees, step sideways keeping tension; 2x10 steps each way
                  - Foam roll calves: 1-2 min
              - name: "Main Set"
                description: |
                  - Goblet Squat: 3x10 reps with 15-20 lb kettlebell
                  - Romanian Deadlifts: 3x8 reps with 15-30 lb total
                  - Calf Raises: 3x12 reps, slow lowering
                  - Side Lunges: Step wide, bend target knee, push through heel; 2x10 each side
                  - Hip Thruster: Upper back on bench, drive hips up, squeeze glutes; 3x10 with bodyweight or light bar
              - name: "Core"
                description: |
                  - Side Plank: 3x20 sec per side
                  - Deadbugs: 3x12 reps
              - name: "Mobility"
                description: |
                  - Foam roll calves, quads, glutes; hip flexor stretch; 3-5 min
            before_tips:
              - "30-60 mins pre-strength: Very Berry Yogurt (1 cup Greek yogurt + 1/2 cup berries + cinnamon, ~23g protein, ~10g carbs)"
            after_tips:
              - "Within 30-60 mins: Chicken Veggie Stir-Fry (4oz chicken breast + mixed vegetables + 2 tsp olive oil + 1/2 cup brown rice, ~28g protein, ~40g carbs)"
      - date: "2025-03-25"
        workouts:
          - type: "Easy Run"
            title: "Run/Walk Intervals"
            summary: "Continue building aerobic endurance with slightly longer run intervals."
            notes: "Light on your feet, short quick steps! If your shins talk to you, drop back to the 30s intervals from last week."
            duration: 35
            distance: 2
            focus: null
            effort: "3"
            activity: null
            steps:
              - name: "Muscle Activation"
                description: |
                  - Toe Yoga: 10 reps per foot
                  - Heel Walks: 30s x 3 rounds
                  - Monster Walks: 2x10 steps each way
              - name: "Running Workout"
                description: |
                  - 5 min warm-up walk
                  - 18 min alternating 45s run / 60s walk
                  - 5 min cooldown walk
              - name: "Post-Run Mobility"
                description: |
                  - Foam roll calves; hip flexor and hamstring stretches; 3-5 min
            before_tips:
              - "30-45 mins pre-run: Apple with 1 tbsp peanut butter (~4g protein, ~20g carbs)"
            after_tips:
              - "Within 30 mins: Cottage Cheese Bowl (3/4 cup cottage cheese + pineapple chunks, ~20g protein, ~15g carbs)"
      - date: "2025-03-26"
        workouts:
          - type: "Cross Training"
            title: "Recovery Cardio"
            summary: "Aerobic work without impact while your legs absorb the running."
            notes: "Pick whichever activity sounds fun today. Swimming and cycling both count, and so does a Pilates class!"
            duration: 40
            distance: null
            focus: null
            effort: "3"
            activity: "Swimming, Cycling, or Pilates"
            steps:
              - name: "Cardio"
                description: |
                  - 25-35 min at conversational effort
              - name: "Post-Workout Mobility"
                description: |
                  - Foam roll calves and quads; figure 4 glute stretch; 3-5 min
            before_tips:
              - "30-45 mins pre-workout: Banana with a handful of almonds (~6g protein, ~25g carbs)"
            after_tips:
              - "Within 60 mins: Veggie Omelet (2 eggs + spinach + peppers + feta, ~18g protein)"
      - date: "2025-03-27"
        workouts:
          - type: "Strength Training"
            title: "Full Body Strength"
            summary: "Second weekly strength session for bone health and injury prevention."
            notes: "Two strength sessions a week is one of the best things you can do for your running, Rosie. This one adds upper body so you're strong everywhere!"
            duration: 50
            distance: null
            focus: "full_body"
            effort: "4"
            activity: null
            steps:
              - name: "Muscle Activation"
                description: |
                  - Glute Bridges: 2x15 reps
                  - Fire Hydrants: On all fours, raise bent knee outward; 2x12 each side
                  - Foam roll calves: 1-2 min
              - name: "Main Set"
                description: |
                  - Bulgarian Split Squat: Rear foot on bench, lower into lunge; 3x8 per leg, bodyweight or 8-15 lb dumbbells
                  - Weighted Calf Raises: 3x15 reps with 10-20 lb dumbbells
                  - Dumbbell Shoulder Press: 3x10 with 8-15 lb dumbbells
                  - Bent-over Rows: 3x10 with 10-15 lb dumbbells
                  - Good Mornings: Hinge forward with hands behind head; 2x10 reps
              - name: "Core"
                description: |
                  - Plank with Hip Drivers: 3x30 sec per side
                  - V-Ups: 3x10 reps
              - name: "Mobility"
                description: |
                  - Foam roll all major muscle groups; leg swings and hip circles; 3-5 min
            before_tips:
              - "30-60 mins pre-strength: Hard-boiled egg + a few whole grain crackers (~8g protein, ~15g carbs)"
            after_tips:
              - "Within 30-60 mins: Salmon Rice Bowl (4oz salmon + 1/2 cup rice + avocado, ~25g protein, ~35g carbs)"
      - date: "2025-03-28"
        workouts:
          - type: "Rest and Recovery"
            title: "Rest Day"
            summary: "Full rest before your first longer weekend session."
            notes: "Resting is training too! Tomorrow is your longest session yet, so put your feet up tonight."
            duration: null
            distance: null
            focus: null
            effort: "Rest"
            activity: null
            steps: []
            before_tips: []
            after_tips:
              - "Keep meals balanced today with protein at every meal to set up tomorrow's session."
      - date: "2025-03-29"
        workouts:
          - type: "Long Run"
            title: "Long Run/Walk"
            summary: "Your longest session of the week to build endurance, still at run/walk effort."
            notes: "Hey Rosie! Saturday long session, just like you wanted. Keep the pace truly easy. The goal is time on your feet, not speed. Audiobooks are my secret weapon for these!"
            duration: 50
            distance: 3
            focus: null
            effort: "4"
            activity: null
            steps:
              - name: "Muscle Activation"
                description: |
                  - Toe Yoga: 10 reps per foot
                  - Heel Walks: 30s x 3 rounds
                  - Banded Lateral Walks: 2x10 steps each way
              - name: "Running Workout"
                description: |
                  - 5 min warm-up walk
                  - 30 min alternating 60s run / 90s walk
                  - 5 min cooldown walk
              - name: "Post-Run Mobility"
                description: |
                  - Foam roll calves, quads, IT band; hip flexor stretch; 5 min
            before_tips:
              - "60-90 mins pre-long run: Banana Oat Pancakes (1 banana + 1/3 cup oats + 1 egg + 1 scoop protein powder, ~25g protein, ~40g carbs)"
            after_tips:
              - "Within 30 mins: Recovery brunch! Greek yogurt parfait or avocado toast with eggs (~25-30g protein, ~30-40g carbs)"
              - "Meet up with some friends to celebrate how awesome you are!"
      - date: "2025-03-30"
        workouts:
          - type: "Rest and Recovery"
            title: "Sunday Rest"
            summary: "Full recovery day, per your preferred schedule."
            notes: "A whole week done, Rosie! Gentle yoga or a walk is fine if you feel like moving."
            duration: null
            distance: null
            focus: null
            effort: "Rest"
            activity: null
            steps: []
            before_tips: []
            after_tips: []
  - goal: "Week 2, Rosie! You've built the routine, now we gently nudge the running forward. Run intervals get a little longer this week while everything else stays familiar. Consistency beats heroics. Keep fueling well and doing your activation work, and text me if anything feels off!"
    week_start_date: "2025-03-31"
    dates:
      - date: "2025-03-31"
        workouts:
          - type: "Strength Training"
            title: "Lower Body Foundations"
            summary: "Repeat of your lower body session with a small load progression."
            notes: "Same movements as last Monday. If the last set felt easy, add 5 lbs!"
            duration: 50
            distance: null
            focus: "lower_body"
            effort: "4"
            activity: null
            steps:
              - name: "Muscle Activation"
                description: |
                  - Glute Bridges: 2x15; Banded Lateral Walks: 2x10 each way; foam roll calves 1-2 min
              - name: "Main Set"
                description: |
                  - Goblet Squat 3x10; Romanian Deadlifts 3x8; Calf Raises 3x12; Side Lunges 2x10 each side; Hip Thruster 3x10
              - name: "Core and Mobility"
                description: |
                  - Side Plank 3x20s per side; Deadbugs 3x12; foam roll and stretch 3-5 min
            before_tips:
              - "30-60 mins pre-strength: Edamame (1 cup, ~17g protein)"
            after_tips:
              - "Within 60 mins: Turkey Wrap (3oz turkey + whole grain wrap + veggies + hummus, ~25g protein, ~30g carbs)"
      - date: "2025-04-01"
        workouts:
          - type: "Easy Run"
            title: "Run/Walk Progression"
            summary: "Longer run intervals as your legs adapt."
            notes: "You've earned this bump, Rosie. 60 seconds of running at a time now. Quick light steps!"
            duration: 40
            distance: 2.5
            focus: null
            effort: "3"
            activity: null
            steps:
              - name: "Muscle Activation"
                description: |
                  - Toe Yoga 10 reps per foot; Heel Walks 30s x 3; Monster Walks 2x10 each way
              - name: "Running Workout"
                description: |
                  - 5 min warm-up walk
                  - 20 min alternating 60s run / 60s walk
                  - 5 min cooldown walk
              - name: "Post-Run Mobility"
                description: |
                  - Foam roll calves; hip flexor and hamstring stretches; 3-5 min
            before_tips:
              - "30-45 mins pre-run: Rice cake with almond butter (~5g protein, ~18g carbs)"
            after_tips:
              - "Within 30 mins: Chocolate Milk (12oz, ~10g protein, ~30g carbs) plus a handful of nuts"
      - date: "2025-04-02"
        workouts:
          - type: "Cross Training"
            title: "Active Recovery"
            summary: "Low-impact aerobic work between run days."
            notes: "Your pick again! This keeps your aerobic engine building while your shins get a break."
            duration: 40
            distance: null
            focus: null
            effort: "3"
            activity: "Cycling, Swimming, or Yoga"
            steps:
              - name: "Cardio"
                description: |
                  - 25-35 min at conversational effort, or a yoga class
              - name: "Post-Workout Mobility"
                description: |
                  - Foam roll and stretch; 3-5 min
            before_tips:
              - "30-45 mins pre-workout: Pear with string cheese (~7g protein, ~20g carbs)"
            after_tips:
              - "Within 60 mins: Tuna on whole grain crackers (~20g protein, ~15g carbs)"
      - date: "2025-04-03"
        workouts:
          - type: "Strength Training"
            title: "Full Body Strength"
            summary: "Second strength session of the week, repeated for consistency."
            notes: "Last strength session of this block, Rosie! Notice how much smoother these movements feel than two weeks ago."
            duration: 50
            distance: null
            focus: "full_body"
            effort: "4"
            activity: null
            steps:
              - name: "Muscle Activation"
                description: |
                  - Glute Bridges 2x15; Fire Hydrants 2x12 each side; foam roll calves 1-2 min
              - name: "Main Set"
                description: |
                  - Bulgarian Split Squat 3x8 per leg; Weighted Calf Raises 3x15; Dumbbell Shoulder Press 3x10; Bent-over Rows 3x10; Good Mornings 2x10
              - name: "Core and Mobility"
                description: |
                  - Plank with Hip Drivers 3x30s per side; V-Ups 3x10; foam roll and dynamic stretches 3-5 min
            before_tips:
              - "30-60 mins pre-strength: Greek yogurt with honey (~18g protein, ~18g carbs)"
            after_tips:
              - "Within 30-60 mins: Tofu Veggie Bowl (5oz tofu + roasted vegetables + quinoa, ~22g protein, ~35g carbs)"
      - date: "2025-04-04"
        workouts:
          - type: "Rest and Recovery"
            title: "Rest Day"
            summary: "Full rest before the weekend long session."
            notes: "Feet up tonight! Big (fun) day Saturday."
            duration: null
            distance: null
            focus: null
            effort: "Rest"
            activity: null
            steps: []
            before_tips: []
            after_tips: []
      - date: "2025-04-05"
        workouts:
          - type: "Long Run"
            title: "Long Run/Walk Progression"
            summary: "Longest session of the block, extending time on feet."
            notes: "Hey Rosie! 35 minutes of intervals today. Remember: easy, chatty pace. You should finish feeling like you could do a little more."
            duration: 55
            distance: 3.5
            focus: null
            effort: "4"
            activity: null
            steps:
              - name: "Muscle Activation"
                description: |
                  - Toe Yoga 10 reps per foot; Heel Walks 30s x 3; Banded Lateral Walks 2x10 each way
              - name: "Running Workout"
                description: |
                  - 5 min warm-up walk
                  - 35 min alternating 60s run / 75s walk
                  - 5 min cooldown walk
              - name: "Post-Run Mobility"
                description: |
                  - Foam roll calves, quads, IT band; hip flexor stretch; 5 min
            before_tips:
              - "60-90 mins pre-long run: Oatmeal with banana and a scoop of protein powder (~22g protein, ~45g carbs)"
            after_tips:
              - "Within 30 mins: Egg white veggie omelet with toast (~25g protein, ~30g carbs)"
      - date: "2025-04-06"
        workouts:
          - type: "Rest and Recovery"
            title: "Sunday Rest"
            summary: "Complete rest to close out the block."
            notes: "You did it, Rosie! Two and a half weeks of consistent training. Celebrate that! I'll have your next block ready, and you can text me anytime with questions or tweaks."
            duration: null
            distance: null
            focus: null
            effort: "Rest"
            activity: null
            steps: []
            before_tips: []
            after_tips: []
` + "```"
