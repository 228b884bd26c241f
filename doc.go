/*
Project: Rope Academy - daily quizzes for IRATA rope access trainees.

core/grading decides whether an answer matches the reference answer.
core/quiz grades whole quizzes and emails the results.
apps/grader is the command line front end.
*/
package academy
